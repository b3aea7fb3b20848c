package jsonld

// namedKind tags the shapes location and organizer take in the wild.
type namedKind int

const (
	kindAbsent namedKind = iota
	kindString
	kindNamed
	kindList
)

// named is a tagged union over {String(s), Named(name), List([]Named)}.
type named struct {
	kind  namedKind
	text  string
	names []string
}

func decodeNamed(value any) named {
	switch v := value.(type) {
	case string:
		return named{kind: kindString, text: scalar(v)}
	case map[string]any:
		return named{kind: kindNamed, text: scalar(v["name"])}
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				names = append(names, scalar(obj["name"]))
			}
		}
		return named{kind: kindList, names: names}
	default:
		return named{kind: kindAbsent}
	}
}

// resolveLocation only understands the string and object shapes.
func resolveLocation(n named) string {
	switch n.kind {
	case kindString, kindNamed:
		return n.text
	default:
		return ""
	}
}

// resolveOrganizer also accepts a list, taking the first non-empty name.
func resolveOrganizer(n named) string {
	switch n.kind {
	case kindString, kindNamed:
		return n.text
	case kindList:
		for _, name := range n.names {
			if name != "" {
				return name
			}
		}
	}
	return ""
}
