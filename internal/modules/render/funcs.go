package render

import (
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/georgemunganga/mama-web/internal/modules/apiclient"
	"github.com/georgemunganga/mama-web/internal/modules/config"
)

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

// RichText sanitises upstream HTML (article bodies, comments) for display.
func RichText(s string) template.HTML { return template.HTML(ugcPolicy.Sanitize(s)) }

// PlainText strips every tag from s.
func PlainText(s string) string { return strings.TrimSpace(plainPolicy.Sanitize(s)) }

// Excerpt is the first n runes of the plain text of s.
func Excerpt(s string, n int) string {
	r := []rune(PlainText(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// Money formats an amount in dinars with grouped thousands: 12 500 DA.
func Money(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + " DA"
}

// Date formats t as dd/mm/yyyy; the zero time renders empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// PageNumbers lists the page links around the current page.
func PageNumbers(p apiclient.Pagination) []int {
	if p.Pages <= 1 {
		return nil
	}
	from, to := max(1, p.Current-2), min(p.Pages, p.Current+2)
	pages := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		pages = append(pages, i)
	}
	return pages
}

var labels = map[string]string{
	"dashboard": "Tableau de bord",
	"articles":  "Articles",
	"products":  "Produits",
	"posts":     "Publications",
	"comments":  "Commentaires",
	"users":     "Utilisateurs",
	"orders":    "Commandes",
	"theme":     "Thème",
	"pending":   "En attente",
	"confirmed": "Confirmée",
	"shipped":   "Expédiée",
	"delivered": "Livrée",
	"cancelled": "Annulée",
}

// Label is the French display name of an admin section or order status.
func Label(key interface{}) string {
	k := fmt.Sprint(key)
	if l, ok := labels[k]; ok {
		return l
	}
	return k
}

func dict(kv ...interface{}) (map[string]interface{}, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// funcs returns the template functions. image is bound per request because
// image references resolve against the request host.
func funcs(ep config.Endpoints) template.FuncMap {
	return template.FuncMap{
		"money":     Money,
		"date":      Date,
		"rich":      RichText,
		"excerpt":   Excerpt,
		"image":     ep.ImageURL,
		"pages":     PageNumbers,
		"dict":      dict,
		"add":       func(a, b int) int { return a + b },
		"ms":        func(d time.Duration) int64 { return d.Milliseconds() },
		"upper":     strings.ToUpper,
		"hasPrefix": strings.HasPrefix,
		"list":      func(s ...string) []string { return s },
		"label":     Label,
	}
}
