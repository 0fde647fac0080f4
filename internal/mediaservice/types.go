package mediaservice

import (
	"strconv"
	"time"
)

// PolicyPermission is the wire-level access policy permission code.
type PolicyPermission int

const (
	PermissionRead  PolicyPermission = 1
	PermissionWrite PolicyPermission = 2
)

// LocatorType is the wire-level locator type code.
type LocatorType int

const (
	// LocatorSAS grants direct upload access to the asset's container.
	LocatorSAS LocatorType = 1
	// LocatorOnDemandOrigin grants streaming access through the origin.
	LocatorOnDemandOrigin LocatorType = 2
)

// JobState is the wire-level encoding job state code.
type JobState int

const (
	JobQueued     JobState = 0
	JobScheduled  JobState = 1
	JobProcessing JobState = 2
	JobFinished   JobState = 3
	JobError      JobState = 4
	JobCanceled   JobState = 5
	JobCanceling  JobState = 6
)

// String names the state for log lines; unknown codes print numerically.
func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobScheduled:
		return "scheduled"
	case JobProcessing:
		return "processing"
	case JobFinished:
		return "finished"
	case JobError:
		return "error"
	case JobCanceled:
		return "canceled"
	case JobCanceling:
		return "canceling"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// AccessPolicy is a named, typed, time-bounded permission grant.
type AccessPolicy struct {
	ID                string           `json:"Id"`
	Name              string           `json:"Name"`
	DurationInMinutes float64          `json:"DurationInMinutes"`
	Permissions       PolicyPermission `json:"Permissions"`
}

// Asset is a remote storage container holding one media item's files.
type Asset struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Locator is a time-scoped, policy-bound handle yielding access URLs for an
// asset.
type Locator struct {
	ID                     string      `json:"Id"`
	AccessPolicyID         string      `json:"AccessPolicyId"`
	AssetID                string      `json:"AssetId"`
	Type                   LocatorType `json:"Type"`
	StartTime              string      `json:"StartTime"`
	ExpirationDateTime     time.Time   `json:"ExpirationDateTime"`
	BaseURI                string      `json:"BaseUri"`
	ContentAccessComponent string      `json:"ContentAccessComponent"`
	Name                   string      `json:"Name"`
	Path                   string      `json:"Path"`
}

// MediaProcessor identifies an encoder available on the remote service.
type MediaProcessor struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Version string `json:"Version"`
}

// JobHandle is the result of a successful job submission: the job ID plus the
// deferred URI of the job's eventual output asset collection.
type JobHandle struct {
	ID              string
	Name            string
	OutputAssetsURI string
}

type collection[T any] struct {
	Value []T `json:"value"`
}
