package appsvc

import (
	"strings"

	"github.com/stevelaver/developer-portal-sub000/internal/svc/apprepo"
	"github.com/stevelaver/developer-portal-sub000/pkg/apperr"
)

// checkAppCanBePublished is the completeness guard shared by approve, request publish and setting isPublic.
func checkAppCanBePublished(a apprepo.Attributes) error {
	missing := make([]string, 0)
	required := []struct {
		name  string
		value string
	}{
		{"repository.type", a.RepoType},
		{"repository.uri", a.RepoURI},
		{"repository.tag", a.RepoTag},
		{"shortDescription", a.ShortDescription},
		{"longDescription", a.LongDescription},
		{"licenseUrl", a.LicenseURL},
		{"documentationUrl", a.DocumentationURL},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}

	if a.Icon32 == nil || *a.Icon32 == "" || a.Icon64 == nil || *a.Icon64 == "" {
		missing = append(missing, "icons")
	}

	if len(missing) > 0 {
		return apperr.BadRequest("app is not complete, missing: %s", strings.Join(missing, ", "))
	}

	return nil
}
