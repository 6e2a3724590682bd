package avm1

import (
	"strings"

	"lantern/pkg/display"
	"lantern/pkg/wstr"
)

// Variable names may embed target paths in the legacy slash syntax
// ("/clip/sub:var"), the dot syntax ("clip.sub.var"), or a mix. A name
// with no separators resolves through the scope chain directly.

func hasPathSeparators(s string) bool {
	return strings.ContainsAny(s, ":/.")
}

// splitVariablePath divides a path into its object portion and the
// final variable name. Colon binds last, then the last slash or dot.
func splitVariablePath(s string) (objPath, varName string, ok bool) {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	if i := strings.LastIndexAny(s, "./"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return "", s, false
}

// pathTokens splits the object portion on slashes and dots. A ".."
// component survives as its own token so it can fold into a parent hop.
func pathTokens(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		switch {
		case s[i] == '/':
			i++
		case strings.HasPrefix(s[i:], ".."):
			out = append(out, "..")
			i += 2
		case s[i] == '.':
			i++
		default:
			j := i
			for j < len(s) && s[j] != '/' && s[j] != '.' {
				j++
			}
			out = append(out, s[i:j])
			i = j
		}
	}
	return out
}

// resolvePathObject walks a target path starting from the current
// target clip; a leading slash restarts from the root level.
func resolvePathObject(a *Activation, path string) (Object, bool) {
	cur := a.TargetObject()
	if strings.HasPrefix(path, "/") {
		cur = rootObject(a)
		if cur == nil {
			return nil, false
		}
	}
	for _, tok := range pathTokens(path) {
		if tok == ".." {
			tok = "_parent"
		}
		if cur == nil {
			return nil, false
		}
		v, err := Get(a, cur, a.Intern(tok))
		if err != nil || v.Kind() != KindObject {
			return nil, false
		}
		cur = v.AsObject()
	}
	return cur, cur != nil
}

// rootObject returns the script object for level zero.
func rootObject(a *Activation) Object {
	if a.Ctx().Stage == nil {
		return nil
	}
	root := a.Ctx().Stage.Root()
	if root == nil {
		return nil
	}
	if obj, ok := root.ScriptObject().(Object); ok && obj != nil {
		return obj
	}
	return a.Avm().BindClip(a, root)
}

// resolveTargetNode resolves a textual target path to a display node.
// The empty path means the current target.
func resolveTargetNode(a *Activation, path string) (display.Node, bool) {
	if path == "" {
		return a.TargetClip(), a.TargetClip() != nil
	}
	obj, ok := resolvePathObject(a, path)
	if !ok {
		return nil, false
	}
	if st := asStage(obj); st != nil {
		return st.Node(), true
	}
	return nil, false
}

// getPathVariable reads a possibly path-qualified variable.
func getPathVariable(a *Activation, name wstr.WStr) (Value, bool) {
	s := name.ToUTF8()
	if !hasPathSeparators(s) {
		return a.Scope().Resolve(a, name)
	}
	objPath, varName, split := splitVariablePath(s)
	if !split {
		return a.Scope().Resolve(a, name)
	}
	if objPath == "" {
		// "/var" and ":var" read off the root and target respectively.
		if strings.HasPrefix(s, "/") {
			if root := rootObject(a); root != nil {
				v, err := Get(a, root, a.Intern(varName))
				return v, err == nil
			}
			return Undefined, false
		}
		v, err := Get(a, a.TargetObject(), a.Intern(varName))
		return v, err == nil
	}
	// A bare dotted head like "a.b.c" resolves its first component
	// through the scope chain before descending.
	if !strings.ContainsAny(objPath, ":/") && !strings.HasPrefix(objPath, "_") {
		toks := pathTokens(objPath)
		if len(toks) > 0 {
			head, found := a.Scope().Resolve(a, a.Intern(toks[0]))
			if found && head.Kind() == KindObject {
				cur := head.AsObject()
				for _, tok := range toks[1:] {
					v, err := Get(a, cur, a.Intern(tok))
					if err != nil || v.Kind() != KindObject {
						return Undefined, false
					}
					cur = v.AsObject()
				}
				v, err := Get(a, cur, a.Intern(varName))
				return v, err == nil
			}
		}
	}
	obj, ok := resolvePathObject(a, objPath)
	if !ok {
		return Undefined, false
	}
	v, err := Get(a, obj, a.Intern(varName))
	return v, err == nil
}

// setPathVariable writes a possibly path-qualified variable.
func setPathVariable(a *Activation, name wstr.WStr, v Value) error {
	s := name.ToUTF8()
	if !hasPathSeparators(s) {
		return a.Scope().SetVariable(a, name, v)
	}
	objPath, varName, split := splitVariablePath(s)
	if !split {
		return a.Scope().SetVariable(a, name, v)
	}
	if objPath == "" {
		if strings.HasPrefix(s, "/") {
			if root := rootObject(a); root != nil {
				return Set(a, root, a.Intern(varName), v)
			}
			return nil
		}
		return Set(a, a.TargetObject(), a.Intern(varName), v)
	}
	if !strings.ContainsAny(objPath, ":/") && !strings.HasPrefix(objPath, "_") {
		toks := pathTokens(objPath)
		if len(toks) > 0 {
			head, found := a.Scope().Resolve(a, a.Intern(toks[0]))
			if found && head.Kind() == KindObject {
				cur := head.AsObject()
				for _, tok := range toks[1:] {
					next, err := Get(a, cur, a.Intern(tok))
					if err != nil || next.Kind() != KindObject {
						return nil
					}
					cur = next.AsObject()
				}
				return Set(a, cur, a.Intern(varName), v)
			}
		}
	}
	obj, ok := resolvePathObject(a, objPath)
	if !ok {
		return nil
	}
	return Set(a, obj, a.Intern(varName), v)
}

// ResolvePath is the exported form of target path resolution for the
// builtin library (Color, tellTarget-style APIs).
func ResolvePath(a *Activation, path wstr.WStr) (Object, bool) {
	return resolvePathObject(a, path.ToUTF8())
}
