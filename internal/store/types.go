package store

// Reference is a single occurrence of a symbol name in a scanned file.
// ID is zero until the reference has been committed.
type Reference struct {
	ID      int64
	Name    string
	File    string
	Line    int
	Context string
}

// FileCount is the number of references recorded in one file.
type FileCount struct {
	Path       string
	References int
}
