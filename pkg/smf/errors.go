package smf

import "errors"

// Sentinel errors for the decoder's framing taxonomy. Callers should use
// errors.Is against these rather than matching error strings; wrapped
// instances carry the offset/context that produced them.
var (
	ErrBadMagic                      = errors.New("smf: bad header magic")
	ErrUnsupportedFormat             = errors.New("smf: unsupported format field")
	ErrTruncatedHeader               = errors.New("smf: truncated header chunk")
	ErrUnsupportedDivision           = errors.New("smf: unsupported time division")
	ErrTruncatedTrack                = errors.New("smf: truncated track data")
	ErrMalformedVLQ                  = errors.New("smf: malformed variable-length quantity")
	ErrRunningStatusWithoutPrior     = errors.New("smf: running status byte with no prior channel status")
	ErrFormat2RequiresTrackSelection = errors.New("smf: format 2 files require per-track iteration")
	ErrFormat2NotSupported           = errors.New("smf: operation not supported for format 2 files")
	ErrInvalidFieldForEvent          = errors.New("smf: field not applicable to this event kind")
	ErrInvalidKeySignature           = errors.New("smf: invalid key signature payload")
	ErrInvalidSMPTEFrameRate         = errors.New("smf: invalid SMPTE frame rate code")
	ErrNotTransmittable              = errors.New("smf: event cannot be serialized to wire bytes")
	ErrUnexpectedEOF                 = errors.New("smf: unexpected end of file")
)
