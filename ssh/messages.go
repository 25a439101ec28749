// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssh

import (
	"fmt"
	"math/big"
	"reflect"
)

// Message numbers, see RFC 4250 §4.1. These are the numeric constants
// that appear on the wire; changing any of them breaks interoperability
// with every deployed SSH server.
const (
	msgDisconnect  = 1
	msgIgnore      = 2
	msgUnimplemented = 3
	msgDebug       = 4
	msgServiceRequest = 5
	msgServiceAccept  = 6
	msgExtInfo        = 7 // RFC 8308

	msgKexInit = 20
	msgNewKeys = 21

	// Diffie-Hellman / group-exchange.
	msgKexDHInit       = 30
	msgKexDHReply      = 31
	msgKexDHGexGroup   = 31 // RFC 4419: same wire number as plain DH reply, distinguished by kex method in progress
	msgKexDHGexInit    = 32
	msgKexDHGexReply   = 33
	msgKexDHGexRequest = 34

	// ECDH / Curve25519 / hybrid (all share the generic ECDH wire numbers).
	msgKexECDHInit  = 30
	msgKexECDHReply = 31

	msgUserAuthRequest = 50
	msgUserAuthFailure = 51
	msgUserAuthSuccess = 52
	msgUserAuthBanner  = 53

	msgGlobalRequest  = 80
	msgRequestSuccess = 81
	msgRequestFailure = 82

	msgChannelOpen            = 90
	msgChannelOpenConfirm     = 91
	msgChannelOpenFailure     = 92
	msgChannelWindowAdjust    = 93
	msgChannelData            = 94
	msgChannelExtendedData    = 95
	msgChannelEOF             = 96
	msgChannelClose           = 97
	msgChannelRequest         = 98
	msgChannelSuccess         = 99
	msgChannelFailure         = 100
)

// disconnectMsg, see RFC 4253 §11.1.
type disconnectMsg struct {
	Reason   uint32
	Message  string
	Language string
}

// RFC 4250 §3.2 disconnect reason codes.
const (
	DisconnectHostNotAllowedToConnect = 1
	DisconnectProtocolError           = 2
	DisconnectKeyExchangeFailed       = 3
	DisconnectReserved                = 4
	DisconnectMacError                = 5
	DisconnectCompressionError        = 6
	DisconnectServiceNotAvailable     = 7
	DisconnectProtocolVersionNotSupported = 8
	DisconnectHostKeyNotVerifiable    = 9
	DisconnectConnectionLost          = 10
	DisconnectByApplication           = 11
	DisconnectTooManyConnections      = 12
	DisconnectAuthCancelledByUser     = 13
	DisconnectNoMoreAuthMethodsAvailable = 14
	DisconnectIllegalUserName         = 15
)

type ignoreMsg struct {
	Data string
}

type debugMsg struct {
	AlwaysDisplay bool
	Message       string
	Language      string
}

type unimplementedMsg struct {
	SeqNum uint32
}

type serviceRequestMsg struct {
	Service string
}

type serviceAcceptMsg struct {
	Service string
}

// kexInitMsg, see RFC 4253 §7.1.
type kexInitMsg struct {
	Cookie                  [16]byte
	KexAlgos                []string
	ServerHostKeyAlgos      []string
	CiphersClientServer     []string
	CiphersServerClient     []string
	MACsClientServer        []string
	MACsServerClient        []string
	CompressionClientServer []string
	CompressionServerClient []string
	LanguagesClientServer   []string
	LanguagesServerClient   []string
	FirstKexFollows         bool
	Reserved                uint32
}

type kexDHInitMsg struct {
	X *big.Int
}

type kexDHReplyMsg struct {
	HostKey   []byte
	Y         *big.Int
	Signature []byte
}

type kexECDHInitMsg struct {
	ClientPubKey []byte
}

type kexECDHReplyMsg struct {
	HostKey         []byte
	EphemeralPubKey []byte
	Signature       []byte
}

type kexDHGexRequestMsg struct {
	Min uint32
	N   uint32
	Max uint32
}

type kexDHGexGroupMsg struct {
	P *big.Int
	G *big.Int
}

type kexDHGexInitMsg struct {
	X *big.Int
}

type kexDHGexReplyMsg struct {
	HostKey   []byte
	Y         *big.Int
	Signature []byte
}

type newKeysMsg struct{}

type userAuthRequestMsg struct {
	User    string
	Service string
	Method  string
	Payload []byte `ssh:"rest"`
}

type userAuthFailureMsg struct {
	Methods        []string
	PartialSuccess bool
}

type userAuthSuccessMsg struct{}

type userAuthBannerMsg struct {
	Message  string
	Language string
}

type globalRequestMsg struct {
	Type      string
	WantReply bool
	Data      []byte `ssh:"rest"`
}

type globalRequestSuccessMsg struct {
	Data []byte `ssh:"rest"`
}

type globalRequestFailureMsg struct {
	Data []byte `ssh:"rest"`
}

type channelOpenMsg struct {
	ChanType         string
	PeersId          uint32
	PeersWindow      uint32
	MaxPacketSize    uint32
	TypeSpecificData []byte `ssh:"rest"`
}

type channelOpenConfirmMsg struct {
	PeersId       uint32
	MyId          uint32
	MyWindow      uint32
	MaxPacketSize uint32
	TypeSpecificData []byte `ssh:"rest"`
}

// RFC 4254 §5.1 channel open failure reason codes.
const (
	AdministrativelyProhibited = 1
	ConnectionFailed           = 2
	UnknownChannelType         = 3
	ResourceShortage           = 4
)

type channelOpenFailureMsg struct {
	PeersId  uint32
	Reason   uint32
	Message  string
	Language string
}

type channelWindowAdjustMsg struct {
	PeersId         uint32
	AdditionalBytes uint32
}

type channelDataMsg struct {
	PeersId uint32
	Length  uint32
	Rest    []byte `ssh:"rest"`
}

type channelExtendedDataMsg struct {
	PeersId  uint32
	DataType uint32
	Length   uint32
	Rest     []byte `ssh:"rest"`
}

type channelEOFMsg struct {
	PeersId uint32
}

type channelCloseMsg struct {
	PeersId uint32
}

type channelRequestMsg struct {
	PeersId             uint32
	Request             string
	WantReply           bool
	RequestSpecificData []byte `ssh:"rest"`
}

type channelRequestSuccessMsg struct {
	PeersId uint32
}

type channelRequestFailureMsg struct {
	PeersId uint32
}

// windowAdjustMsg is an alias kept for symmetry with the teacher's naming
// at call sites that only care about PeersId/AdditionalBytes.
type windowAdjustMsg = channelWindowAdjustMsg

// decode turns a raw packet (message number + payload) into its typed
// struct, using reflection the same way the teacher's call sites
// (unmarshal(&serverKexInit, packet, msgKexInit)) presuppose.
func decode(packet []byte) (interface{}, error) {
	if len(packet) == 0 {
		return nil, &ParseError{0}
	}
	var out interface{}
	switch packet[0] {
	case msgDisconnect:
		out = new(disconnectMsg)
	case msgIgnore:
		out = new(ignoreMsg)
	case msgUnimplemented:
		out = new(unimplementedMsg)
	case msgDebug:
		out = new(debugMsg)
	case msgServiceRequest:
		out = new(serviceRequestMsg)
	case msgServiceAccept:
		out = new(serviceAcceptMsg)
	case msgKexInit:
		out = new(kexInitMsg)
	case msgNewKeys:
		out = new(newKeysMsg)
	case msgUserAuthFailure:
		out = new(userAuthFailureMsg)
	case msgUserAuthSuccess:
		out = new(userAuthSuccessMsg)
	case msgUserAuthBanner:
		out = new(userAuthBannerMsg)
	case msgGlobalRequest:
		out = new(globalRequestMsg)
	case msgRequestSuccess:
		out = new(globalRequestSuccessMsg)
	case msgRequestFailure:
		out = new(globalRequestFailureMsg)
	case msgChannelOpen:
		out = new(channelOpenMsg)
	case msgChannelOpenConfirm:
		out = new(channelOpenConfirmMsg)
	case msgChannelOpenFailure:
		out = new(channelOpenFailureMsg)
	case msgChannelWindowAdjust:
		out = new(channelWindowAdjustMsg)
	case msgChannelData:
		out = new(channelDataMsg)
	case msgChannelExtendedData:
		out = new(channelExtendedDataMsg)
	case msgChannelEOF:
		out = new(channelEOFMsg)
	case msgChannelClose:
		out = new(channelCloseMsg)
	case msgChannelRequest:
		out = new(channelRequestMsg)
	case msgChannelSuccess:
		out = new(channelRequestSuccessMsg)
	case msgChannelFailure:
		out = new(channelRequestFailureMsg)
	default:
		return nil, UnexpectedMessageError{0, packet[0]}
	}
	if err := unmarshalInto(out, packet[1:]); err != nil {
		return nil, err
	}
	return out, nil
}

// marshal serializes msg (tagged with its SSH message number) into a
// fresh packet: [msgType][field]...
func marshal(msgType byte, msg interface{}) []byte {
	buf := []byte{msgType}
	return marshalInto(buf, msg)
}

// unmarshal decodes a raw packet into msg, checking that its leading
// message-type byte matches want, mirroring the teacher's
// unmarshal(&serverKexInit, packet, msgKexInit) call sites.
func unmarshal(msg interface{}, packet []byte, want byte) error {
	if len(packet) == 0 {
		return &ParseError{0}
	}
	if packet[0] != want {
		return UnexpectedMessageError{want, packet[0]}
	}
	return unmarshalInto(msg, packet[1:])
}

func marshalInto(buf []byte, msg interface{}) []byte {
	v := reflect.Indirect(reflect.ValueOf(msg))
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := v.Type().Field(i).Tag.Get("ssh")
		buf = marshalField(buf, field, tag)
	}
	return buf
}

func marshalField(buf []byte, field reflect.Value, tag string) []byte {
	switch field.Kind() {
	case reflect.Bool:
		return appendBool(buf, field.Bool())
	case reflect.Array:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			n := field.Len()
			tmp := make([]byte, n)
			reflect.Copy(reflect.ValueOf(tmp), field)
			return append(buf, tmp...)
		}
	case reflect.Uint32:
		return appendU32(buf, uint32(field.Uint()))
	case reflect.Uint64:
		return appendU64(buf, field.Uint())
	case reflect.String:
		return appendString(buf, field.String())
	case reflect.Slice:
		switch field.Type().Elem().Kind() {
		case reflect.String:
			list := make([]string, field.Len())
			for i := range list {
				list[i] = field.Index(i).String()
			}
			return appendNameList(buf, list)
		case reflect.Uint8:
			data := field.Bytes()
			if tag == "rest" {
				return append(buf, data...)
			}
			return appendString(buf, string(data))
		}
	case reflect.Ptr:
		if bi, ok := field.Interface().(*big.Int); ok {
			return appendMpint(buf, bi)
		}
	}
	panic(fmt.Sprintf("ssh: unsupported field kind %v for marshal", field.Kind()))
}

func unmarshalInto(msg interface{}, data []byte) error {
	v := reflect.Indirect(reflect.ValueOf(msg))
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := v.Type().Field(i).Tag.Get("ssh")
		var err error
		data, err = unmarshalField(field, data, tag)
		if err != nil {
			return err
		}
	}
	return nil
}

func unmarshalField(field reflect.Value, data []byte, tag string) ([]byte, error) {
	switch field.Kind() {
	case reflect.Bool:
		if len(data) < 1 {
			return nil, &ParseError{0}
		}
		field.SetBool(data[0] != 0)
		return data[1:], nil
	case reflect.Array:
		if field.Type().Elem().Kind() == reflect.Uint8 {
			n := field.Len()
			if len(data) < n {
				return nil, &ParseError{0}
			}
			reflect.Copy(field, reflect.ValueOf(data[:n]))
			return data[n:], nil
		}
	case reflect.Uint32:
		v, rest, ok := parseUint32(data)
		if !ok {
			return nil, &ParseError{0}
		}
		field.SetUint(uint64(v))
		return rest, nil
	case reflect.Uint64:
		v, rest, ok := parseUint64(data)
		if !ok {
			return nil, &ParseError{0}
		}
		field.SetUint(v)
		return rest, nil
	case reflect.String:
		s, rest, ok := parseString(data)
		if !ok {
			return nil, &ParseError{0}
		}
		field.SetString(string(s))
		return rest, nil
	case reflect.Slice:
		switch field.Type().Elem().Kind() {
		case reflect.String:
			list, rest, ok := parseNameList(data)
			if !ok {
				return nil, &ParseError{0}
			}
			field.Set(reflect.ValueOf(list))
			return rest, nil
		case reflect.Uint8:
			if tag == "rest" {
				field.SetBytes(append([]byte(nil), data...))
				return nil, nil
			}
			s, rest, ok := parseString(data)
			if !ok {
				return nil, &ParseError{0}
			}
			field.SetBytes(append([]byte(nil), s...))
			return rest, nil
		}
	case reflect.Ptr:
		if field.Type() == reflect.TypeOf((*big.Int)(nil)) {
			n, rest, ok := parseMpint(data)
			if !ok {
				return nil, &ParseError{0}
			}
			field.Set(reflect.ValueOf(n))
			return rest, nil
		}
	}
	return nil, fmt.Errorf("ssh: unsupported field kind %v for unmarshal", field.Kind())
}
