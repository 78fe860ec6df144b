package env

// expand works like os.Expand except that references which do not
// resolve via the lookup function remain in the output verbatim.
// A recipe may legitimately contain shell variable references which are
// only resolvable when the command executes inside the image.
func expand(s string, lookup func(string) (string, bool)) string {
	var buf []byte
	i := 0
	for j := 0; j < len(s); j++ {
		if s[j] == '$' && j+1 < len(s) {
			if buf == nil {
				buf = make([]byte, 0, 2*len(s))
			}
			buf = append(buf, s[i:j]...)
			name, w := getVarName(s[j+1:])
			if name == "" {
				// not a variable reference, keep the dollar:
				buf = append(buf, s[j])
			} else if value, ok := lookup(name); ok {
				buf = append(buf, value...)
			} else {
				buf = append(buf, s[j:j+1+w]...)
			}
			j += w
			i = j + 1
		}
	}
	if buf == nil {
		return s
	}
	return string(buf) + s[i:]
}

// getVarName returns the referenced variable name and the number of
// bytes the reference occupies after the dollar sign.
// An empty name means the dollar does not start a variable reference.
func getVarName(s string) (string, int) {
	if s[0] == '{' {
		for i := 1; i < len(s); i++ {
			if s[i] == '}' {
				if i == 1 {
					return "", 2
				}
				return s[1:i], i + 1
			}
			if !isNameByte(s[i]) {
				// ${ followed by a non-name character, not a reference:
				return "", 0
			}
		}
		return "", 0
	}
	var i int
	for i = 0; i < len(s) && isNameByte(s[i]); i++ {
	}
	return s[:i], i
}

func isNameByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
