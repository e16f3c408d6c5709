package schema

// Custom string types for type safety.
type (
	// Granularity represents the spacing of the as-of date axis.
	Granularity string

	// Page represents one cohort metric page.
	Page string

	// QueryName identifies an upstream query and the schema of its output table.
	QueryName string

	// Bucket is the name of a status bucket in a result table.
	Bucket string

	// Outcome represents how a page invocation ended.
	Outcome string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the result cache.
	DatabaseBackend string
)

// All axis granularities supported.
const (
	Daily   Granularity = "D"
	Monthly Granularity = "M" // default
	Yearly  Granularity = "Y"
)

// All pages supported.
const (
	DriftPage     Page = "drift"
	StalenessPage Page = "staleness"
	ResponsePage  Page = "response"
)

// Upstream query identifiers.
const (
	ContributorsQuery  QueryName = "contributors_query"
	IssuesQuery        QueryName = "issues_query"
	IssueResponseQuery QueryName = "issue_response_query"
)

// Status buckets per page.
const (
	ActiveBucket   Bucket = "Active"
	DriftingBucket Bucket = "Drifting"
	AwayBucket     Bucket = "Away"

	NewBucket     Bucket = "New"
	StalingBucket Bucket = "Staling"
	StaleBucket   Bucket = "Stale"

	OpenBucket     Bucket = "Open"
	ResponseBucket Bucket = "Response"
)

// All page outcomes.
const (
	OutcomeReady             Outcome = "ready"
	OutcomeNotReady          Outcome = "not_ready"
	OutcomeInvalidThresholds Outcome = "invalid_thresholds"
	OutcomeNoData            Outcome = "no_data"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
)

// AllPages lists every page in dashboard order.
var AllPages = []Page{DriftPage, StalenessPage, ResponsePage}

// ValidGranularities lists all valid axis granularities.
var ValidGranularities = map[Granularity]struct{}{
	Daily:   {},
	Monthly: {},
	Yearly:  {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid cache backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
}

// ValidQueryNames lists all upstream queries the pages can consume.
var ValidQueryNames = map[QueryName]struct{}{
	ContributorsQuery:  {},
	IssuesQuery:        {},
	IssueResponseQuery: {},
}

// PageQuery maps each page to the upstream query it reads.
var PageQuery = map[Page]QueryName{
	DriftPage:     ContributorsQuery,
	StalenessPage: IssuesQuery,
	ResponsePage:  IssueResponseQuery,
}

// PageBuckets maps each page to its bucket columns in output order.
var PageBuckets = map[Page][]Bucket{
	DriftPage:     {ActiveBucket, DriftingBucket, AwayBucket},
	StalenessPage: {NewBucket, StalingBucket, StaleBucket},
	ResponsePage:  {OpenBucket, ResponseBucket},
}

// Upstream column names written by the query layer.
const (
	ContributorIDColumn = "cntrb_id"
	IssueIDColumn       = "issue_id"
	CreatedColumn       = "created"
	CreatedAtColumn     = "created_at"
	ClosedColumn        = "closed"
	ClosedAtColumn      = "closed_at"
	MessageAuthorColumn = "msg_cntrb_id"
	MessageTimeColumn   = "msg_timestamp"
	RepoIDColumn        = "id"
)

// QueryColumns lists the columns each query produces, in table order.
var QueryColumns = map[QueryName][]string{
	ContributorsQuery:  {RepoIDColumn, ContributorIDColumn, CreatedAtColumn},
	IssuesQuery:        {RepoIDColumn, IssueIDColumn, CreatedColumn, ClosedColumn},
	IssueResponseQuery: {RepoIDColumn, IssueIDColumn, ContributorIDColumn, CreatedAtColumn, ClosedAtColumn, MessageTimeColumn, MessageAuthorColumn},
}
