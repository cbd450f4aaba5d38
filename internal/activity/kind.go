package activity

import "strings"

// Kind identifies the category of an event for rendering dispatch. The
// upstream type tag is open-ended, so unknown values map to KindUnrecognized
// instead of being rejected.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindPush
	KindCreate
	KindDelete
	KindIssues
	KindPullRequest
	KindWatch
	KindFork
	KindIssueComment
	KindPullRequestReview
	KindPullRequestReviewComment
	KindCommitComment
	KindRelease
	KindPublic
	KindMember
	KindGollum
)

var kindByType = map[string]Kind{
	"pushevent":                     KindPush,
	"createevent":                   KindCreate,
	"deleteevent":                   KindDelete,
	"issuesevent":                   KindIssues,
	"pullrequestevent":              KindPullRequest,
	"watchevent":                    KindWatch,
	"forkevent":                     KindFork,
	"issuecommentevent":             KindIssueComment,
	"pullrequestreviewevent":        KindPullRequestReview,
	"pullrequestreviewcommentevent": KindPullRequestReviewComment,
	"commitcommentevent":            KindCommitComment,
	"releaseevent":                  KindRelease,
	"publicevent":                   KindPublic,
	"memberevent":                   KindMember,
	"gollumevent":                   KindGollum,
}

// ParseKind maps an upstream event type string onto a known Kind, falling
// back to KindUnrecognized. Matching is case-insensitive.
func ParseKind(eventType string) Kind {
	if k, ok := kindByType[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		return k
	}
	return KindUnrecognized
}
