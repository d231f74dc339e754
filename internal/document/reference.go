package document

import (
	"os"
	"path/filepath"
	"strings"
)

// RefKey marks a fragment as a pointer to a shared document on disk.
const RefKey = "$ref"

// OverridesKey carries a fragment merged onto the referenced document.
const OverridesKey = "overrides"

// RefResolver expands $ref fragments against a project root.
type RefResolver struct {
	// Root anchors relative references and bounds resolution. When empty,
	// the root is discovered by walking up from the working directory.
	Root string
}

// NewRefResolver returns a resolver anchored at the discovered project root.
func NewRefResolver() *RefResolver {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &RefResolver{Root: FindProjectRoot(wd)}
}

// FindProjectRoot walks upward from start looking for a go.mod or .git
// marker. It falls back to start when no marker is found.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}
	for cur := dir; ; {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(cur, marker)); err == nil {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return dir
		}
		cur = parent
	}
}

// Resolve expands a fragment. A fragment without a $ref marker is returned
// unchanged. Otherwise the referenced document is loaded (recursively, if it
// is itself a reference) and any overrides fragment is deep-merged on top.
func (r *RefResolver) Resolve(frag Document) (Document, error) {
	return r.resolve(frag, map[string]bool{})
}

func (r *RefResolver) resolve(frag Document, visited map[string]bool) (Document, error) {
	ref, ok := frag[RefKey].(string)
	if !ok || ref == "" {
		return frag, nil
	}

	canon, err := r.canonicalize(ref)
	if err != nil {
		return nil, err
	}
	if visited[canon] {
		return nil, &CircularReferenceError{Path: canon}
	}
	// Each branch of a reference fan-out carries its own copy of the
	// visited set, so sibling references to the same document are legal
	// while true cycles still terminate.
	branch := make(map[string]bool, len(visited)+1)
	for k := range visited {
		branch[k] = true
	}
	branch[canon] = true

	doc, err := Load(canon)
	if err != nil {
		return nil, err
	}
	if _, nested := doc[RefKey]; nested {
		doc, err = r.resolve(doc, branch)
		if err != nil {
			return nil, err
		}
	}

	if overrides, ok := frag[OverridesKey].(Document); ok && len(overrides) > 0 {
		merged, _ := DeepMerge(doc, overrides).(Document)
		return merged, nil
	}
	return doc, nil
}

func (r *RefResolver) canonicalize(ref string) (string, error) {
	root := r.Root
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", &InvalidReferenceError{Ref: ref, Reason: err.Error()}
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, ref)
	}
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &InvalidReferenceError{Ref: ref, Reason: "path escapes project boundary"}
	}
	return path, nil
}
