package activity

import (
	"fmt"
	"strings"

	"activity-archive/internal/models"
)

const timeLayout = "2006-01-02T15:04:05"

// Render turns one event into a display string. It is total: whatever the
// payload looks like, it falls back to a generic rendering rather than
// failing. The output is for display only, never machine-parsed.
func Render(e models.Event) string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.CreatedAt.Format(timeLayout))
	sb.WriteString("] ")
	sb.WriteString(e.Actor.Login)
	sb.WriteString(" ")
	sb.WriteString(describe(e))
	return sb.String()
}

// FallbackDescription is the generic rendering used when a full render is
// not trusted, e.g. per-event formatting failures in the persistence path.
func FallbackDescription(e models.Event) string {
	return e.Type + " on " + e.Repo.Name
}

func describe(e models.Event) string {
	repo := e.Repo.Name
	p := e.Payload

	switch ParseKind(e.Type) {
	case KindPush:
		count := 0
		if commits, ok := payloadList(p, "commits"); ok {
			count = len(commits)
		} else if size, ok := payloadNumber(p, "size"); ok {
			count = size
		}
		return fmt.Sprintf("pushed %d commit(s) to %s", count, repo)

	case KindCreate:
		return refDescription("created", p, repo)

	case KindDelete:
		return refDescription("deleted", p, repo)

	case KindIssues:
		return titledDescription(actionOr(p, "modified"), "an issue", p, "issue", repo)

	case KindPullRequest:
		return titledDescription(actionOr(p, "modified"), "a pull request", p, "pull_request", repo)

	case KindWatch:
		return "starred " + repo

	case KindFork:
		out := "forked " + repo
		if forkee, ok := payloadMap(p, "forkee"); ok {
			if full, ok := stringField(forkee, "full_name"); ok {
				out += " to " + full
			}
		}
		return out

	case KindIssueComment:
		verb := "commented on"
		if action, ok := stringField(p, "action"); ok && action != "created" {
			verb = action
		}
		return titledDescription(verb, "an issue", p, "issue", repo)

	case KindPullRequestReview:
		return actionOr(p, "reviewed") + " a pull request in " + repo

	case KindPullRequestReviewComment:
		return "commented on a pull request review in " + repo

	case KindCommitComment:
		return "commented on a commit in " + repo

	case KindRelease:
		out := actionOr(p, "created") + " a release"
		if release, ok := payloadMap(p, "release"); ok {
			if tag, ok := stringField(release, "tag_name"); ok {
				out += " '" + tag + "'"
			}
		}
		return out + " in " + repo

	case KindPublic:
		return "made " + repo + " public"

	case KindMember:
		out := actionOr(p, "added") + " "
		if member, ok := payloadMap(p, "member"); ok {
			if login, ok := stringField(member, "login"); ok {
				out += login + " as a "
			}
		}
		return out + "member to " + repo

	case KindGollum:
		if pages, ok := payloadList(p, "pages"); ok && len(pages) > 0 {
			return fmt.Sprintf("updated %d wiki page(s) in %s", len(pages), repo)
		}
		return "updated wiki in " + repo

	default:
		return fmt.Sprintf("performed %s on %s", e.Type, repo)
	}
}

// refDescription renders create/delete events: "<verb> <refType|unknown>
// '<ref>' in R", with the ref segment omitted when absent or empty.
func refDescription(verb string, p map[string]any, repo string) string {
	refType := "unknown"
	if rt, ok := stringField(p, "ref_type"); ok {
		refType = rt
	}
	out := verb + " " + refType
	if ref, ok := stringField(p, "ref"); ok && ref != "" {
		out += " '" + ref + "'"
	}
	return out + " in " + repo
}

// titledDescription renders "<verb> <noun> '<title>' in R", with the title
// segment omitted when the nested object or its title is absent.
func titledDescription(verb, noun string, p map[string]any, objectKey, repo string) string {
	out := verb + " " + noun
	if obj, ok := payloadMap(p, objectKey); ok {
		if title, ok := stringField(obj, "title"); ok {
			out += " '" + title + "'"
		}
	}
	return out + " in " + repo
}

func actionOr(p map[string]any, fallback string) string {
	if action, ok := stringField(p, "action"); ok {
		return action
	}
	return fallback
}

func stringField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	return s, ok
}

func payloadMap(p map[string]any, key string) (map[string]any, bool) {
	if p == nil {
		return nil, false
	}
	m, ok := p[key].(map[string]any)
	return m, ok
}

func payloadList(p map[string]any, key string) ([]any, bool) {
	if p == nil {
		return nil, false
	}
	l, ok := p[key].([]any)
	return l, ok
}

// payloadNumber handles the numeric shapes JSON decoding can produce.
func payloadNumber(p map[string]any, key string) (int, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
