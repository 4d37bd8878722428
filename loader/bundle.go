package loader

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/caelum-lang/stepweave/step"
)

// loadBundle loads every .step entry out of a single .tar.lz4 archive,
// the "source tree shipped as one file" alternative to a local directory
// or an S3 prefix.
func (l *Loader) loadBundle(module *step.Module, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tr := tar.NewReader(lz4.NewReader(f))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("loader: reading bundle %s: %w", path, err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Ext(hdr.Name) != ".step" {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("loader: reading %s from bundle %s: %w", hdr.Name, path, err)
		}
		if err := l.LoadDefinitions(module, string(data), path+"!"+hdr.Name); err != nil {
			return err
		}
	}
}
