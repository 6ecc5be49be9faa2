package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reservedNames are JS keywords and page globals a stub must never shadow.
var reservedNames = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "enum": {},
	"export": {}, "extends": {}, "false": {}, "finally": {}, "for": {}, "function": {},
	"if": {}, "import": {}, "in": {}, "instanceof": {}, "new": {}, "null": {},
	"return": {}, "super": {}, "switch": {}, "this": {}, "throw": {}, "true": {},
	"try": {}, "typeof": {}, "var": {}, "void": {}, "while": {}, "with": {},
	"yield": {}, "let": {}, "static": {}, "await": {}, "implements": {},
	"interface": {}, "package": {}, "private": {}, "protected": {}, "public": {},
	"arguments": {}, "eval": {}, "undefined": {}, "NaN": {}, "Infinity": {},
	"window": {}, "globalThis": {}, "self": {}, "document": {}, "location": {},
	"console": {}, "external": {}, "JSON": {}, "Promise": {}, "Object": {},
	"Array": {}, "String": {}, "Number": {}, "Boolean": {}, "Error": {},
	"Math": {}, "Date": {}, "Symbol": {}, "setTimeout": {}, "setInterval": {},
	"clearTimeout": {}, "clearInterval": {},
}

// ValidateName reports whether name can be used as a bound function name.
func ValidateName(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q is not a JavaScript identifier", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, "_rpc") || strings.HasPrefix(name, "__rpc") {
		return fmt.Errorf("%w: %q uses the bridge's reserved prefix", ErrInvalidName, name)
	}
	if _, ok := reservedNames[name]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return nil
}
