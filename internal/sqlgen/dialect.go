package sqlgen

// PagingStyle selects how offset and limit render.
type PagingStyle int

const (
	// PagingTopOffsetFetch renders TOP(n) or OFFSET n ROWS FETCH NEXT m
	// ROWS ONLY.
	PagingTopOffsetFetch PagingStyle = iota

	// PagingLimitOffset renders LIMIT m OFFSET n.
	PagingLimitOffset
)

// Dialect describes the SQL flavor a Generator emits.
type Dialect struct {
	Name   string
	Helper Helper
	Paging PagingStyle

	// NativeBool reports whether boolean values and predicates are
	// interchangeable in the store.
	NativeBool bool
}

var (
	// SQLServer is Microsoft SQL Server.
	SQLServer = Dialect{
		Name:   "sqlserver",
		Helper: BracketHelper(),
		Paging: PagingTopOffsetFetch,
	}

	// SQLite is SQLite 3.
	SQLite = Dialect{
		Name:       "sqlite",
		Helper:     DoubleQuoteHelper(),
		Paging:     PagingLimitOffset,
		NativeBool: true,
	}
)

// DialectByName returns the dialect named name.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case SQLServer.Name:
		return SQLServer, true
	case SQLite.Name:
		return SQLite, true
	}
	return Dialect{}, false
}
