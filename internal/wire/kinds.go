package wire

import "fmt"

// Kind identifies a message frame. Values are part of the wire contract
// in spec §4.2 and must never be renumbered.
type Kind uint8

// Message kinds, client→server unless noted.
const (
	KindVersion            Kind = 1
	KindReqLimit           Kind = 2
	KindChdir              Kind = 3
	KindBulkopBegin        Kind = 4
	KindBulkopClose        Kind = 8
	KindChunk              Kind = 9
	KindExit               Kind = 10
	KindVersionResp        Kind = 100 // server→client
	KindLimitResp          Kind = 101 // server→client
	KindGenResult          Kind = 102 // server→client
	KindBulkopResults      Kind = 103 // server→client
	KindBulkopCloseResults Kind = 104 // server→client
)

func (k Kind) String() string {
	switch k {
	case KindVersion:
		return "VERSION"
	case KindReqLimit:
		return "REQ_LIMIT"
	case KindChdir:
		return "CHDIR"
	case KindBulkopBegin:
		return "BULKOP_BEGIN"
	case KindBulkopClose:
		return "BULKOP_CLOSE"
	case KindChunk:
		return "CHUNK"
	case KindExit:
		return "EXIT"
	case KindVersionResp:
		return "VERSION_RESP"
	case KindLimitResp:
		return "LIMIT_RESP"
	case KindGenResult:
		return "GEN_RESULT"
	case KindBulkopResults:
		return "BULKOP_RESULTS"
	case KindBulkopCloseResults:
		return "BULKOP_CLOSE_RESULTS"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// OpType identifies a single record inside a BULKOP_BEGIN payload.
type OpType uint8

const (
	OpWrite   OpType = 1
	OpSymlink OpType = 2
	OpDelete  OpType = 10
)

func (o OpType) String() string {
	switch o {
	case OpWrite:
		return "WRITE"
	case OpSymlink:
		return "SYMLINK"
	case OpDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("OpType(%d)", uint8(o))
	}
}

// ProtocolVersion is the only version this implementation speaks.
const ProtocolVersion uint32 = 1
