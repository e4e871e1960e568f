package genapidoc

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/mitchellh/cli"
	"github.com/stevelaver/developer-portal-sub000/transport/restapi/apidoc"
	"github.com/yusufsyaifudin/openapidoc/utils"
)

type ApiDocCfg struct {
	AppVersion string
}

type ApiDoc struct {
	Config ApiDocCfg

	flags     *flag.FlagSet
	outDir    string
	serverURL string
}

var _ cli.Command = (*ApiDoc)(nil)

func NewApiDocCmd(cfg ApiDocCfg) (*ApiDoc, error) {
	a := &ApiDoc{Config: cfg}
	a.flags = flag.NewFlagSet("apidoc", flag.ContinueOnError)
	a.flags.StringVar(&a.outDir, "out", "assets/swaggerui", "Directory to write openapi.json and openapi.yaml")
	a.flags.StringVar(&a.serverURL, "server", "http://localhost:8080", "Server URL written in the document")
	return a, nil
}

func (a *ApiDoc) Help() string {
	return "Usage: apidoc [-out=assets/swaggerui] [-server=http://localhost:8080]\n\n  " + a.Synopsis()
}

func (a *ApiDoc) Synopsis() string {
	return "generate the OpenAPI document of the HTTP API as json and yaml"
}

// Run .
// all responses must follow: respbuilder.HTTPSuccess{} or respbuilder.HTTPError{}
func (a *ApiDoc) Run(args []string) int {
	if err := a.flags.Parse(args); err != nil {
		log.Println(err)
		return 1
	}

	j, y, err := Generate(context.Background(), apidoc.Config{
		Version:    a.Config.AppVersion,
		ServerURL:  a.serverURL,
		SchemaLogs: os.Stdout,
	})
	if err != nil {
		log.Println(err)
		return 1
	}

	if err = WriteFile(j, path.Join(a.outDir, "openapi.json")); err != nil {
		log.Println(err)
		return 1
	}

	if err = WriteFile(y, path.Join(a.outDir, "openapi.yaml")); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

// Generate return the document encoded as json and yaml.
func Generate(ctx context.Context, cfg apidoc.Config) (j []byte, y []byte, err error) {
	doc, err := apidoc.Build(ctx, cfg)
	if err != nil {
		err = fmt.Errorf("cannot build openapi3 doc: %w", err)
		return
	}

	j, err = doc.MarshalJSON()
	if err != nil {
		err = fmt.Errorf("cannot marshal openapi3 doc: %w", err)
		return
	}

	var i interface{}
	err = json.Unmarshal(j, &i)
	if err != nil {
		err = fmt.Errorf("cannot unmarshal openapi3 doc: %w", err)
		return
	}

	y, err = utils.YamlMarshalIndent(i)
	if err != nil {
		err = fmt.Errorf("cannot marshal YAML openapi3 doc: %w", err)
		return
	}

	return
}

// WriteFile create or overwrite fileName with content, parent directories are created.
func WriteFile(content []byte, fileName string) error {
	dir := path.Dir(fileName)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(fileName, content, 0o644); err != nil {
		return fmt.Errorf("cannot overwrite file %s: %w", fileName, err)
	}

	return nil
}
