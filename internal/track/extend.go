package track

// ExecutionExtender is a best-effort capability to request a bounded
// execution extension from the host OS around a persistence operation, so
// in-flight writes are not truncated when the process is suspended. Begin
// returns the function that releases the extension; it must always be called.
//
// Denial or expiry means only "the write may not have completed", never an
// error to propagate.
type ExecutionExtender interface {
	Begin(reason string) (end func())
}

// NoopExtender is the default extender: it grants nothing and never expires.
type NoopExtender struct{}

func (NoopExtender) Begin(string) func() { return func() {} }
