package apprepo

import (
	"fmt"
	"strings"
)

// attrColumns follow the field order of Attributes.
var attrColumns = []string{
	"name", "type",
	"repo_type", "repo_uri", "repo_tag", "repo_options",
	"short_description", "long_description", "license_url", "documentation_url",
	"required_memory", "process_timeout", "encryption", "default_bucket", "default_bucket_stage",
	"forward_token", "forward_token_details", "inject_environment",
	"logger_type", "logger_configuration", "ui_options",
	"configuration_schema", "test_configuration", "empty_configuration", "permissions",
	"icon32", "icon64",
	"is_public", "is_deprecated", "expired_on", "replacement_app",
}

var (
	appColumns     = concat([]string{"id", "vendor", "version"}, attrColumns, []string{"is_approved", "deleted_on", "created_on", "created_by"})
	versionColumns = concat([]string{"id", "version"}, attrColumns, []string{"created_on", "created_by"})

	sqlAppColumns     = strings.Join(appColumns, ", ")
	sqlVersionColumns = strings.Join(versionColumns, ", ")
	sqlAttrColumns    = strings.Join(attrColumns, ", ")
)

var (
	sqlInsertApp = fmt.Sprintf(
		`INSERT INTO apps (id, vendor, version, is_approved, created_on, created_by, %s) VALUES (%s) ON CONFLICT (id) DO NOTHING RETURNING %s;`,
		sqlAttrColumns, placeholders(1, 6+len(attrColumns)), sqlAppColumns,
	)

	// sqlCopyCurrentToVersion reads the current row and appends it to history in one statement,
	// it must run in the transaction that bumped the version so the row lock is still held.
	sqlCopyCurrentToVersion = fmt.Sprintf(
		`INSERT INTO app_versions (id, version, %[1]s, created_on, created_by) SELECT id, version, %[1]s, $2, $3 FROM apps WHERE id = $1;`,
		sqlAttrColumns,
	)

	sqlBumpVersion = `UPDATE apps SET version = version + 1 WHERE id = $1 AND deleted_on IS NULL RETURNING version;`
	sqlSetIcons    = `UPDATE apps SET icon32 = $2, icon64 = $3 WHERE id = $1;`

	sqlGetApp        = fmt.Sprintf(`SELECT %s FROM apps WHERE id = $1 AND deleted_on IS NULL LIMIT 1;`, sqlAppColumns)
	sqlGetAppDeleted = fmt.Sprintf(`SELECT %s FROM apps WHERE id = $1 LIMIT 1;`, sqlAppColumns)

	sqlGetVersion        = fmt.Sprintf(`SELECT %s FROM app_versions WHERE id = $1 AND version = $2 LIMIT 1;`, sqlVersionColumns)
	sqlCountVersions     = `SELECT COUNT(*) AS total FROM app_versions WHERE id = $1;`
	sqlListVersions      = fmt.Sprintf(`SELECT %s FROM app_versions WHERE id = $1 ORDER BY version DESC LIMIT $2 OFFSET $3;`, sqlVersionColumns)
	sqlFindUnknownStacks = `SELECT s.name FROM UNNEST($1::text[]) AS s(name) WHERE NOT EXISTS (SELECT 1 FROM stacks WHERE stacks.name = s.name);`

	sqlListFilter = `deleted_on IS NULL AND ($1::text = '' OR vendor = $1) AND (NOT $2::boolean OR (is_approved AND is_public))`
	sqlCountApps  = `SELECT COUNT(*) AS total FROM apps WHERE ` + sqlListFilter + `;`
	sqlListApps   = fmt.Sprintf(`SELECT %s FROM apps WHERE %s ORDER BY id ASC LIMIT $3 OFFSET $4;`, sqlAppColumns, sqlListFilter)
)

// sqlUpdateApp build the partial update statement. Version is bumped in the same statement,
// the id is the last bind parameter.
func sqlUpdateApp(cols []column) (query string, args []interface{}) {
	sets := make([]string, 0, len(cols)+1)
	args = make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c.name, i+1))
		args = append(args, c.value)
	}

	sets = append(sets, "version = version + 1")
	query = fmt.Sprintf(
		`UPDATE apps SET %s WHERE id = $%d AND deleted_on IS NULL RETURNING %s;`,
		strings.Join(sets, ", "), len(cols)+1, sqlAppColumns,
	)

	return
}

func attrValues(a Attributes) []interface{} {
	return []interface{}{
		a.Name, a.Type,
		a.RepoType, a.RepoURI, a.RepoTag, a.RepoOptions,
		a.ShortDescription, a.LongDescription, a.LicenseURL, a.DocumentationURL,
		a.RequiredMemory, a.ProcessTimeout, a.Encryption, a.DefaultBucket, a.DefaultBucketStage,
		a.ForwardToken, a.ForwardTokenDetails, a.InjectEnvironment,
		a.LoggerType, a.LoggerConfiguration, a.UIOptions,
		a.ConfigurationSchema, a.TestConfiguration, a.EmptyConfiguration, a.Permissions,
		a.Icon32, a.Icon64,
		a.IsPublic, a.IsDeprecated, a.ExpiredOn, a.ReplacementApp,
	}
}

func placeholders(from, to int) string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("$%d", i))
	}

	return strings.Join(out, ", ")
}

func concat(parts ...[]string) []string {
	out := make([]string, 0)
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}
