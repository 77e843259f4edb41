package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/refgate/internal/client/client"
	"github.com/dmitrijs2005/refgate/internal/client/config"
	"github.com/dmitrijs2005/refgate/internal/client/progress"
	"github.com/dmitrijs2005/refgate/internal/common"
)

type spinner interface {
	Start(label string)
	SetLabel(label string)
	Stop()
}

var (
	newClient = func(c *config.Config) client.Client {
		return client.NewHTTPClient(c.ServerURL, c.RequestTimeout, c.UploadTimeout)
	}
	statFile = os.Stat
	readFile = os.ReadFile
)

type App struct {
	config     *config.Config
	client     client.Client
	out        io.Writer
	newSpinner func() spinner
}

// NewApp writes results to out and progress to errOut.
func NewApp(c *config.Config, out, errOut io.Writer) *App {
	return &App{
		config:     c,
		client:     newClient(c),
		out:        out,
		newSpinner: func() spinner { return progress.New(errOut, 0) },
	}
}

// document is a local file checked against the accepted types.
type document struct {
	name       string
	sourceType string
	mimeType   string
	data       []byte
}

func loadDocument(path string) (*document, error) {
	fi, err := statFile(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", common.ErrValidation, path)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", common.ErrValidation, path)
	}
	if fi.Size() > common.MaxFileSize {
		return nil, fmt.Errorf("%w: %s", common.ErrValidation, common.MessageFileTooLarge)
	}

	name := filepath.Base(path)
	sourceType, ok := common.SourceTypeForExtension(strings.ToLower(filepath.Ext(name)))
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrValidation, common.MessageInvalidType)
	}
	mimeType, _ := common.MimeTypeForSourceType(sourceType)

	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &document{name: name, sourceType: sourceType, mimeType: mimeType, data: data}, nil
}
