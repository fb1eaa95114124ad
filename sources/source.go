package sources

var (
	// DefaultTable is the table name used by the database backed sources when
	// none is configured.
	DefaultTable = "error_pages"
)
