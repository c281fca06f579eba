package constant

import "time"

const QUERY_TIMEOUT_DURATION = 5 * time.Second

const (
	REQUEST_SUCCESSFUL   = "Request successful"
	REQUEST_UNSUCCESSFUL = "Request unsuccessful"
)

const DefaultPageSize uint = 20

// TmpUploadDirName is the subdirectory of the projects root that holds
// staged uploads before commit.
const TmpUploadDirName = "_tmp_uploads"

// OrdinalTransferOffset keeps re-parented revisions clear of the dense
// 1..N range while a merge renumbers them. See repository.transferLedger.
const OrdinalTransferOffset = 1 << 20
