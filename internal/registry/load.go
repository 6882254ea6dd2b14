package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads every record definition in the CUE package in dir.
func (r *Registry) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("schemas directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return formatCUEError(err)
	}
	return r.registerAll(value)
}

// LoadString compiles CUE source and registers its record definitions.
// filename is used in error positions.
func (r *Registry) LoadString(src, filename string) error {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return formatCUEError(err)
	}
	return r.registerAll(value)
}

func (r *Registry) registerAll(value cue.Value) error {
	records := value.LookupPath(cue.ParsePath("record"))
	if !records.Exists() {
		return &CompileError{Field: "record", Message: "no record definitions found", Pos: value.Pos()}
	}

	iter, err := records.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		s, err := CompileRecord(iter.Value())
		if err != nil {
			return fmt.Errorf("record %s: %w", iter.Selector().Unquoted(), err)
		}
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
