package types

// SyncResult is the combined verdict of pushing one member operation to the
// device through both channels.  TransportOK means the device acknowledged
// the direct TCP command; Queued means a middleware command row was written.
// Either one is enough for the operation to count as propagated.
type SyncResult struct {
	TransportOK bool   `json:"device_registered"`
	Queued      bool   `json:"middleware_command_queued"`
	Message     string `json:"message"`
}

// Succeeded reports whether at least one channel worked.
func (r SyncResult) Succeeded() bool {
	return r.TransportOK || r.Queued
}
