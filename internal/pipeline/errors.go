package pipeline

import "errors"

// Pipeline errors.
var (
	// ErrEmptyData means a strategy reached the source but got no usable rows.
	ErrEmptyData = errors.New("no data found in spreadsheet")
	// ErrUnableToConnect is the terminal error after every strategy failed.
	ErrUnableToConnect = errors.New("unable to connect to Google Sheets")
	ErrNoStrategies    = errors.New("pipeline has no strategies")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrMissingClient   = errors.New("strategy requires a sheets client")
	ErrMissingStore    = errors.New("strategy requires a snapshot store")
)

// ErrorMessage is shown on the display when acquisition fails for good.
const ErrorMessage = `Unable to connect to Google Sheets. Please check:
1. The spreadsheet is shared publicly (Anyone with the link can view)
2. A sheet named "Main" exists
3. The first row has the headers: Image URL | Description | Title | Campus_ID`
