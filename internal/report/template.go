package report

// reportTemplate is the HTML layout for an analysis report.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }

  .header {
    display: flex;
    justify-content: space-between;
    align-items: flex-start;
    border-bottom: 3px solid var(--accent);
    padding-bottom: 12px;
    margin-bottom: 16px;
  }
  .ticker-badge {
    display: inline-block;
    background: var(--accent);
    color: white;
    padding: 2px 12px;
    border-radius: 4px;
    font-weight: 700;
    margin-right: 8px;
  }

  .rec-box {
    display: flex;
    align-items: center;
    justify-content: space-between;
    gap: 16px;
    padding: 16px;
    border-radius: 8px;
    margin: 12px 0;
  }
  .rec-box.strong-buy { background: #dcfce7; border-left: 5px solid var(--green); }
  .rec-box.buy { background: #ecfdf5; border-left: 5px solid #22c55e; }
  .rec-box.hold { background: #fefce8; border-left: 5px solid #eab308; }
  .rec-box.sell { background: #fef2f2; border-left: 5px solid #f97316; }
  .rec-box.strong-sell { background: #fef2f2; border-left: 5px solid var(--red); }
  .rec-label { font-size: 1.4rem; font-weight: 700; }

  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th { background: var(--section-bg); text-align: left; padding: 8px; font-weight: 600; }
  td { padding: 8px; border-bottom: 1px solid var(--border); }

  .ratio-grid {
    display: grid;
    grid-template-columns: repeat(auto-fill, minmax(180px, 1fr));
    gap: 8px;
    margin: 10px 0 16px;
  }
  .ratio-card {
    background: var(--section-bg);
    padding: 8px 12px;
    border-radius: 6px;
    display: flex;
    justify-content: space-between;
  }
  .ratio-card .label { color: var(--muted); font-size: 0.85rem; }
  .ratio-card .value { font-weight: 600; }

  .chart-container { margin: 12px 0; overflow-x: auto; }
  .chart-container svg { max-width: 100%; height: auto; }
  .section { margin: 20px 0; }
  .section-summary {
    background: var(--section-bg);
    padding: 12px;
    border-radius: 6px;
    margin: 8px 0;
    line-height: 1.7;
  }
  ul.factors { margin: 8px 0 8px 20px; }

  .footer {
    margin-top: 30px;
    padding-top: 12px;
    border-top: 2px solid var(--border);
    font-size: 0.8rem;
    color: var(--muted);
    text-align: center;
  }

  @media print {
    body { max-width: 100%; padding: 10px; }
    .section { page-break-inside: avoid; }
  }
</style>
</head>
<body>

<!-- ═══════ HEADER ═══════ -->
<div class="header">
  <div>
    <h1><span class="ticker-badge">{{.Symbol}}</span> {{.Title}}</h1>
    <p class="muted">{{.Bars}} bars analysed{{if .LastPrice}} · last close {{.LastPrice}}{{end}}</p>
  </div>
  <div>
    <p class="muted">{{.GeneratedAt}}</p>
    <p class="muted">{{.Author}}</p>
  </div>
</div>

<!-- ═══════ RECOMMENDATION ═══════ -->
<div class="section">
  <h2>Recommendation</h2>
  <div class="rec-box {{.ActionClass}}">
    <div>
      <div class="rec-label">{{.Action}}</div>
      <div class="muted">Overall {{.Overall}} · Confidence {{.Confidence}} · Risk {{.Risk}}</div>
    </div>
    <div>{{.GaugeChart}}</div>
  </div>
  {{if .Factors}}
  <ul class="factors">
    {{range .Factors}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
  <div class="section-summary">{{.Reasoning}}</div>
</div>

<!-- ═══════ SCORES ═══════ -->
<div class="section">
  <h2>Scores</h2>
  <div class="chart-container">{{.ScoreChart}}</div>
  <table>
    <thead><tr><th>Component</th><th>Score</th><th>Weight</th><th>Note</th></tr></thead>
    <tbody>
    {{range .Scores}}
    <tr><td>{{.Label}}</td><td>{{.Value}}</td><td>{{.Weight}}</td><td>{{.Note}}</td></tr>
    {{end}}
    </tbody>
  </table>
</div>

<!-- ═══════ PRICE CHART ═══════ -->
{{if .PriceChart}}
<div class="section">
  <h2>Price Chart</h2>
  <div class="chart-container">{{.PriceChart}}</div>
</div>
{{end}}

<!-- ═══════ TECHNICAL ═══════ -->
<div class="section">
  <h2>Technical Summary</h2>
  <div class="ratio-grid">
    {{range .Technical}}
    <div class="ratio-card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{end}}
  </div>
  {{if .Signals}}
  <ul class="factors">
    {{range .Signals}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
</div>

<!-- ═══════ METRICS ═══════ -->
<div class="section">
  <h2>Fundamental &amp; Risk Metrics</h2>
  <div class="ratio-grid">
    {{range .Metrics}}
    <div class="ratio-card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
    {{end}}
  </div>
  {{if .ValuationNotes}}
  <ul class="factors">
    {{range .ValuationNotes}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
</div>

<!-- ═══════ FOOTER ═══════ -->
<div class="footer">
  <p><strong>Disclaimer:</strong> Scores are computed by fixed rules from the supplied data.
  They are informational only and do not constitute financial advice.</p>
  <p>Generated on {{.GeneratedAt}}</p>
</div>

</body>
</html>`
