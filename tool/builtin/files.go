package builtin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/turnwise/turnwise/internal/util"
	"github.com/turnwise/turnwise/tool"
)

const maxReadBytes = 256 * 1024

type readFileArgs struct {
	Path string `json:"path" description:"Path of the file to read, relative to the workspace"`
}

type writeFileArgs struct {
	Path    string `json:"path" description:"Path of the file to write, relative to the workspace"`
	Content string `json:"content" description:"Text content to write"`
}

type listDirectoryArgs struct {
	Path string `json:"path,omitempty" description:"Directory to list, relative to the workspace. Defaults to the workspace root."`
}

func registerFileTools(r *tool.Registry, opts *Options) error {
	sandbox := sandboxDir(opts.BaseDir)

	if err := r.Register(
		"read_file",
		"Read a text file from the agent workspace.",
		util.CreateSchema(readFileArgs{}),
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			path, _ := args["path"].(string)
			full := sandbox.resolve(path)

			info, err := os.Stat(full)
			if err != nil {
				res := tool.Failure(fmt.Sprintf("File not found: %s", path))
				return &res, nil
			}
			if info.IsDir() {
				res := tool.Failure(fmt.Sprintf("Not a file: %s", path))
				return &res, nil
			}
			if info.Size() > maxReadBytes {
				res := tool.Failure(fmt.Sprintf("File too large to read: %s (%d bytes)", path, info.Size()))
				return &res, nil
			}

			content, err := os.ReadFile(full)
			if err != nil {
				return nil, err
			}
			res := tool.Success(map[string]any{
				"path":    path,
				"content": string(content),
				"summary": fmt.Sprintf("Read %d bytes from %s.", len(content), path),
			})
			return &res, nil
		},
	); err != nil {
		return err
	}

	if err := r.Register(
		"write_file",
		"Write text content to a file in the agent workspace, creating parent directories as needed.",
		util.CreateSchema(writeFileArgs{}),
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			path, _ := args["path"].(string)
			content, _ := args["content"].(string)
			full := sandbox.resolve(path)

			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
				return nil, err
			}
			res := tool.Success(map[string]any{
				"path":    path,
				"bytes":   len(content),
				"summary": fmt.Sprintf("Wrote %d bytes to %s.", len(content), path),
			})
			return &res, nil
		},
	); err != nil {
		return err
	}

	return r.Register(
		"list_directory",
		"List the files and directories in a workspace directory.",
		util.CreateSchema(listDirectoryArgs{}),
		func(_ context.Context, args map[string]any) (*tool.Result, error) {
			path, _ := args["path"].(string)
			full := sandbox.resolve(path)

			entries, err := os.ReadDir(full)
			if err != nil {
				res := tool.Failure(fmt.Sprintf("Directory not found: %s", path))
				return &res, nil
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)

			res := tool.Success(map[string]any{
				"path":    path,
				"entries": names,
				"summary": fmt.Sprintf("%d entries in %s.", len(names), displayPath(path)),
			})
			return &res, nil
		},
	)
}

type sandbox struct {
	root string
}

func sandboxDir(base string) sandbox {
	abs, err := filepath.Abs(base)
	if err != nil {
		abs = base
	}
	return sandbox{root: abs}
}

// resolve maps a model-supplied path into the sandbox. Absolute paths and
// paths that climb out with ".." are rebased onto their final element rather
// than rejected, matching the lenient contract the tools document.
func (s sandbox) resolve(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	if cleaned == "." || cleaned == "" {
		return s.root
	}
	if filepath.IsAbs(cleaned) {
		return filepath.Join(s.root, filepath.Base(cleaned))
	}
	joined := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(joined, s.root+string(filepath.Separator)) && joined != s.root {
		return filepath.Join(s.root, filepath.Base(cleaned))
	}
	return joined
}

func displayPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "workspace root"
	}
	return path
}
