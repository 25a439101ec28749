// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import "testing"

func TestKexAlgosWithMarkersAppendsOnce(t *testing.T) {
	base := []string{kexAlgoCurve25519SHA256, kexAlgoECDH256}
	out := kexAlgosWithMarkers(base)

	if len(out) != len(base)+2 {
		t.Fatalf("expected %d entries, got %d: %v", len(base)+2, len(out), out)
	}
	if out[len(out)-1] != strictKexMarkerC2S {
		t.Fatalf("expected strict-kex marker last, got %q", out[len(out)-1])
	}
	if out[len(out)-2] != extInfoMarkerC2S {
		t.Fatalf("expected ext-info marker second-to-last, got %q", out[len(out)-2])
	}
	for i, name := range base {
		if out[i] != name {
			t.Fatalf("expected configured kex algorithms to stay in order, got %v", out)
		}
	}
}

func TestNegotiatedStrictKex(t *testing.T) {
	cases := []struct {
		algos []string
		want  bool
	}{
		{nil, false},
		{[]string{kexAlgoCurve25519SHA256}, false},
		{[]string{kexAlgoCurve25519SHA256, strictKexMarkerS2C}, true},
	}
	for _, c := range cases {
		if got := negotiatedStrictKex(c.algos, strictKexMarkerS2C); got != c.want {
			t.Fatalf("negotiatedStrictKex(%v): got %v, want %v", c.algos, got, c.want)
		}
	}
}
