// Package render prepares the panel's HTML document from the prebuilt UI bundle.
//
// The bundle ships with relative ./assets/ references and no security policy.
// Render rewrites every asset reference to an absolute addressable URI and
// injects the charset, viewport, base tag, and content-security policy the
// panel requires. The policy is static: the only permitted network endpoint
// is the local worker API.
package render

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lumi-desktop/lumi/internal/client"
)

// IndexFile is the bundle entry point loaded by the panel.
const IndexFile = "index.html"

// ErrTemplateNotFound indicates the bundle has no index.html. Callers receive
// a minimal inline error document alongside this error and should render it
// rather than fail the start action.
var ErrTemplateNotFound = errors.New("panel bundle has no " + IndexFile)

// Translator maps a bundle-relative path to an absolute addressable URI.
// Translate("") yields the bundle root; Translate("assets/app.js") yields the
// URI the panel may load that asset from.
type Translator func(rel string) string

// assetRef matches relative asset references emitted by the bundle build.
var assetRef = regexp.MustCompile(`(src|href)="\./assets/([^"]+)"`)

// headOpenTag matches the head-open tag in any case, with or without
// attributes.
var headOpenTag = regexp.MustCompile(`(?i)<head[^>]*>`)

// Page loads the bundle's index.html, rewrites its asset references through
// translate, and injects the head block. On a missing index.html it returns
// the inline error document together with ErrTemplateNotFound.
func Page(bundleDir string, translate Translator) (string, error) {
	raw, err := os.ReadFile(filepath.Join(bundleDir, IndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return errorDocument(), ErrTemplateNotFound
		}
		return errorDocument(), fmt.Errorf("reading %s: %w", IndexFile, err)
	}

	html := assetRef.ReplaceAllStringFunc(string(raw), func(ref string) string {
		m := assetRef.FindStringSubmatch(ref)
		return fmt.Sprintf(`%s="%s"`, m[1], translate("assets/"+m[2]))
	})

	root := strings.TrimSuffix(translate(""), "/")
	if loc := headOpenTag.FindStringIndex(html); loc != nil {
		html = html[:loc[1]] + "\n" + headBlock(root) + html[loc[1]:]
	} else {
		// No head tag in the bundle at all; lead with the declarations.
		html = headBlock(root) + "\n" + html
	}
	return html, nil
}

// headBlock builds the injected declarations for the given bundle root URI.
func headBlock(root string) string {
	return fmt.Sprintf(`<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<base href="%s/">
<meta http-equiv="Content-Security-Policy" content="%s">`, root, policy(root))
}

// policy returns the content-security policy for the panel. Styles, scripts,
// fonts, and images may only come from the panel's own origin (inline styles
// and scripts allowed, images additionally from data URIs); the only network
// endpoint is the worker API.
func policy(root string) string {
	origin := root
	if u, err := url.Parse(root); err == nil && u.Scheme != "" && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	directives := []string{
		"default-src 'none'",
		fmt.Sprintf("style-src %s 'unsafe-inline'", origin),
		fmt.Sprintf("script-src %s 'unsafe-inline'", origin),
		fmt.Sprintf("font-src %s", origin),
		fmt.Sprintf("img-src %s data:", origin),
		"connect-src " + client.DefaultBaseURL,
		"base-uri " + root,
	}
	return strings.Join(directives, "; ")
}

// errorDocument is shown in place of the bundle when index.html is missing.
func errorDocument() string {
	return `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Lumi</title></head>
<body><h3>Lumi panel bundle not found</h3>
<p>The UI bundle is missing or corrupt. Reinstall Lumi to restore it.</p></body>
</html>`
}
