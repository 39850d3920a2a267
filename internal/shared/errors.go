package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Metadata acquisition errors
	ErrNoMetadata   = fmt.Errorf("no metadata available from any source")
	ErrStageFailed  = fmt.Errorf("metadata stage failed")
	ErrBadStatus    = fmt.Errorf("unexpected HTTP status")
	ErrParseFailed  = fmt.Errorf("failed to parse upstream payload")
	ErrNoCoverArt   = fmt.Errorf("no cover art found")
	ErrSendFailed   = fmt.Errorf("notification send failed")
	ErrNoTransport  = fmt.Errorf("no transport for target")
	ErrImportFailed = fmt.Errorf("catalog import failed")

	// Catalog and matching errors
	ErrNoMatch       = fmt.Errorf("no catalog entry above match threshold")
	ErrSongNotFound  = fmt.Errorf("song not found")
	ErrEmptyCatalog  = fmt.Errorf("catalog is empty")
	ErrStateNotFound = fmt.Errorf("no playback state recorded")
	ErrRuleNotFound  = fmt.Errorf("notification rule not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
