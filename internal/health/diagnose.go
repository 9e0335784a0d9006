package health

import (
	"strings"

	"github.com/minio/minio-go/v7"
)

// Category names a failure class an operator can act on.
type Category string

const (
	CategoryHandshake          Category = "credential-handshake"
	CategoryInvalidCredentials Category = "invalid-credentials"
	CategoryMissingBucket      Category = "missing-bucket"
	CategoryNetwork            Category = "network-unreachable"
	CategoryUnknown            Category = "unknown"
)

// Diagnosis pairs a category with its remediation hint.
type Diagnosis struct {
	Category    Category
	Remediation string
}

// rule matches structured S3 error codes first and falls back to message
// substrings for errors that never make it to the S3 layer (DNS, TCP, TLS).
// Kept as data so new store-client versions only need a table edit.
type rule struct {
	codes      []string
	substrings []string
	diagnosis  Diagnosis
}

var rules = []rule{
	{
		codes: []string{"InvalidAccessKeyId", "SignatureDoesNotMatch", "AccessDenied", "InvalidArgument"},
		diagnosis: Diagnosis{
			Category:    CategoryInvalidCredentials,
			Remediation: "verify STORE_ACCESS_KEY_ID and STORE_SECRET_ACCESS_KEY match an active key for this bucket",
		},
	},
	{
		codes:      []string{"NoSuchBucket"},
		substrings: []string{"bucket does not exist"},
		diagnosis: Diagnosis{
			Category:    CategoryMissingBucket,
			Remediation: "create the bucket named in STORE_BUCKET_NAME or fix the name",
		},
	},
	{
		substrings: []string{"handshake failure", "tls:", "certificate", "ssl"},
		diagnosis: Diagnosis{
			Category:    CategoryHandshake,
			Remediation: "usually invalid credentials reported as a TLS failure; re-check the access key pair before debugging certificates",
		},
	},
	{
		substrings: []string{"no such host", "connection refused", "network is unreachable", "i/o timeout", "dial tcp", "timeout awaiting response"},
		diagnosis: Diagnosis{
			Category:    CategoryNetwork,
			Remediation: "check STORE_ENDPOINT and outbound network access from this host",
		},
	},
}

var unknownDiagnosis = Diagnosis{
	Category:    CategoryUnknown,
	Remediation: "inspect the logged error; if it persists, test the endpoint with an S3 CLI using the same credentials",
}

// Classify maps a store error onto the diagnosis table.
func Classify(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	code := minio.ToErrorResponse(err).Code
	message := strings.ToLower(err.Error())

	for _, r := range rules {
		for _, c := range r.codes {
			if code == c {
				return r.diagnosis
			}
		}
		for _, s := range r.substrings {
			if strings.Contains(message, s) {
				return r.diagnosis
			}
		}
	}
	return unknownDiagnosis
}
