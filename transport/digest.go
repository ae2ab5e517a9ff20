package transport

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// digestChallenge is a parsed WWW-Authenticate: Digest header, per
// RFC 2617. Only MD5/MD5-sess with an optional qop=auth are
// understood; a challenge naming any other algorithm or a qop this
// client doesn't implement (auth-int) is reported as unsupported so
// the caller falls back to a terminal AuthError instead of silently
// sending a wrong response.
type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	qop       string
	algorithm string
}

var digestParamRe = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|([^\s,]+))`)

// parseDigestChallenge finds the first Digest challenge among the
// WWW-Authenticate header values a 401 response carried.
func parseDigestChallenge(values []string) (*digestChallenge, bool) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !strings.HasPrefix(strings.ToLower(v), "digest ") {
			continue
		}
		c := &digestChallenge{algorithm: "MD5"}
		for _, m := range digestParamRe.FindAllStringSubmatch(v, -1) {
			val := m[2]
			if val == "" {
				val = m[3]
			}
			switch strings.ToLower(m[1]) {
			case "realm":
				c.realm = val
			case "nonce":
				c.nonce = val
			case "opaque":
				c.opaque = val
			case "qop":
				c.qop = firstQop(val)
				if c.qop == "" {
					c.qop = val // no "auth" offered; supported() rejects it
				}
			case "algorithm":
				c.algorithm = val
			}
		}
		if c.nonce == "" {
			continue
		}
		return c, true
	}
	return nil, false
}

// firstQop picks the first quality-of-protection this client supports
// out of a comma/space-separated offer list, preferring "auth" over
// "auth-int" (request-body digests aren't implemented here).
func firstQop(offered string) string {
	for _, q := range strings.FieldsFunc(offered, func(r rune) bool { return r == ',' || r == ' ' }) {
		if q == "auth" {
			return q
		}
	}
	return ""
}

// supported reports whether this client can answer the challenge.
func (c *digestChallenge) supported() bool {
	alg := strings.ToUpper(c.algorithm)
	return (alg == "MD5" || alg == "MD5-SESS" || alg == "") && (c.qop == "" || c.qop == "auth")
}

// authorization computes the RFC 2617 Digest Authorization header
// value for one request, the same H(A1):nonce[:nc:cnonce:qop]:H(A2)
// construction the teacher's SIP stack uses for its own Authorization
// header (sip/auth.go's calcResponse), extended with the HTTP-side
// qop/cnonce/nc triple real WBEM servers challenge with.
func (c *digestChallenge) authorization(username, password, method, uri string) (string, error) {
	ha1 := md5Hex(username + ":" + c.realm + ":" + password)
	ha2 := md5Hex(method + ":" + uri)

	sess := strings.EqualFold(c.algorithm, "MD5-sess")
	var cnonce, response, extra string
	if c.qop == "auth" || sess {
		var err error
		if cnonce, err = randomCnonce(); err != nil {
			return "", err
		}
	}
	if sess {
		ha1 = md5Hex(ha1 + ":" + c.nonce + ":" + cnonce)
		extra = ", algorithm=" + c.algorithm
	}
	if c.qop == "auth" {
		const nc = "00000001"
		response = md5Hex(ha1 + ":" + c.nonce + ":" + nc + ":" + cnonce + ":" + c.qop + ":" + ha2)
		extra += fmt.Sprintf(`, qop=%s, nc=%s, cnonce="%s"`, c.qop, nc, cnonce)
	} else {
		response = md5Hex(ha1 + ":" + c.nonce + ":" + ha2)
		if sess {
			extra += fmt.Sprintf(`, cnonce="%s"`, cnonce)
		}
	}

	header := fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s"%s`,
		username, c.realm, c.nonce, uri, response, extra,
	)
	if c.opaque != "" {
		header += fmt.Sprintf(`, opaque="%s"`, c.opaque)
	}
	return header, nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func randomCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
