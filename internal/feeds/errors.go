package feeds

import "fmt"

// ParseError means the document is not well-formed XML; the feed is unusable.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed feed document: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnknownFormatError means the document is XML but neither RSS nor Atom.
type UnknownFormatError struct {
	Root string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown feed format: root element <%s>", e.Root)
}
