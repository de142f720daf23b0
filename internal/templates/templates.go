package templates

import (
	"html/template"
	"net/http"

	"tarotscore/internal/summary"
)

const recapHTML = `<!doctype html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Récap de session</title>
</head>
<body>
<h1>Récap de session</h1>
<p>{{.Highlights.TotalGames}} donnes, {{.Highlights.TotalStars}} étoiles, écart {{.ScoreSpread}}</p>
<table>
<tr><th>#</th><th>Joueur</th><th>Score</th></tr>
{{range .Ranking}}<tr><td>{{.Position}}</td><td>{{.PlayerName}}</td><td>{{.Score}}</td></tr>
{{end}}</table>
{{with .Highlights.BestGame}}<p>Meilleure donne : {{.TakerName}} ({{.Score}}, donne {{.Position}})</p>{{end}}
{{with .Highlights.WorstGame}}<p>Pire donne : {{.TakerName}} ({{.Score}}, donne {{.Position}})</p>{{end}}
{{if .Awards}}<h2>Trophées</h2>
<ul>
{{range .Awards}}<li>{{.Emoji}} {{.Title}} : {{.PlayerName}} ({{.Description}})</li>
{{end}}</ul>{{end}}
</body>
</html>
`

var recap = template.Must(LoadTemplate("recap", recapHTML))

// WriteRecapHTML serves the session recap page.
func WriteRecapHTML(w http.ResponseWriter, sum summary.Summary) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_ = recap.Execute(w, sum)
}

// LoadTemplate loads and parses an HTML template
func LoadTemplate(name, content string) (*template.Template, error) {
	return template.New(name).Parse(content)
}
