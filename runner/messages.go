package runner

// Status lines published during a run.
const (
	MsgMissingAdapter = "Missing Bluetooth adapter"
	MsgNoDevice       = "No Bluetooth device with name %s found."
	MsgPairHint       = "Pair a Bluetooth device in the system settings, then retry."
	MsgUsing          = "Using %s"
	MsgOpening        = "Open connection..."
	MsgOpened         = "Connection is open"
	MsgSending        = "Sending: %s"
	MsgWaiting        = "Waiting %s for the response..."
	MsgReceived       = "Received: %s"
	MsgError          = "Error: %s"
	MsgClosing        = "Closing connection"
)
