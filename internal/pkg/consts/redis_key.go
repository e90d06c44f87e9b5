package consts

const (
	IngestLastRunKey = "ingest:last_run"
)

const (
	IngestRunLock = "lock:ingest:run"
	RepairLock    = "lock:repair:run"
)
