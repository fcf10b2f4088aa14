package server

const layoutHTML = `<!doctype html><html><head><meta charset="utf-8"><title>side-launcher · {{.Title}}</title><link rel="icon" href="/favicon.svg" type="image/svg+xml">
<style>
body{font-family:system-ui,-apple-system,Segoe UI,Roboto,Ubuntu,Helvetica,Arial,sans-serif;margin:16px;max-width:960px}
nav a{padding:6px 10px;text-decoration:none;color:#0366d6;border-radius:4px}
nav a.active{background:#0366d6;color:#fff}
nav{margin-bottom:12px;display:flex;align-items:center;gap:4px}
.flash{padding:8px 12px;border-radius:4px;margin-bottom:12px}
.flash.info{background:#dbeafe;color:#1e3a8a}
.flash.error{background:#fee2e2;color:#991b1b}
.tasks{display:flex;flex-wrap:wrap;gap:8px}
.tasks form{margin:0}
.tasks button{padding:8px 14px;border:1px solid #d0d7de;border-radius:6px;background:#f6f8fa;cursor:pointer}
.tasks button.terminal{border-color:#0366d6}
.badge{display:inline-block;padding:2px 6px;border-radius:12px;font-size:11px;background:#e0e7ff;color:#3730a3;margin-left:6px}
.srcerr{color:#92400e;background:#fef3c7;padding:6px 10px;border-radius:4px;margin:4px 0;font-family:ui-monospace,Menlo,Consolas,monospace;font-size:12px}
.cmdlog{margin-top:16px;border-top:1px solid #eee;padding-top:8px}
.cmdlog .hdr{display:flex;justify-content:space-between;align-items:center}
.cmdlog pre{background:#fff;border:1px solid #d0d7de;padding:8px;max-height:160px;overflow:auto}
.cmdlog pre.err{border-color:#fca5a5}
.cmdlog .ts{color:#6a737d}
.cmdlog .cmd{color:#24292e;font-weight:600}
.help-content pre{background:#f6f8fa;border:1px solid #d0d7de;padding:8px;overflow-x:auto;border-radius:3px}
.help-content code{background:#f6f8fa;padding:2px 4px;border-radius:3px;font-family:ui-monospace,SFMono-Regular,Menlo,Monaco,Consolas,monospace;font-size:0.9em}
</style>
</head><body>
<nav>
  <a href="/" class="{{if eq .Active "home"}}active{{end}}">Tasks</a>
  <a href="/help" class="{{if eq .Active "help"}}active{{end}}">Help</a>
  <form method="post" action="/reload" style="display:inline;margin-left:8px;">
    <input type="hidden" name="csrf_token" value="{{.CSRF}}">
    <button type="submit">Reload</button>
  </form>
</nav>
{{with .Flash}}<div class="flash {{.Type}}">{{.Text}}</div>{{end}}
{{if eq .Active "help"}}
<div class="help-content">{{.HelpHTML}}</div>
{{else}}
{{range .Errors}}<div class="srcerr">{{.Source}}: {{.Err}}</div>{{end}}
{{if .HelpOnly}}<p>No tasks configured yet. See <a href="/help">Help</a>.</p>{{end}}
<div class="tasks">
{{$csrf := .CSRF}}
{{range $i, $t := .Tasks}}
  <form method="post" action="/run">
    <input type="hidden" name="csrf_token" value="{{$csrf}}">
    <input type="hidden" name="i" value="{{$i}}">
    <button type="submit" title="{{$t.Command}}"{{if $t.Type.Interactive}} class="terminal"{{end}}>{{$t.Label}}{{if $t.Type.Interactive}}<span class="badge">terminal</span>{{end}}</button>
  </form>
{{end}}
</div>
{{if .ShowCmdLog}}
<div class="cmdlog">
  <div class="hdr"><strong>Recent results</strong> <span>{{if .MoreURL}}<a href="{{.MoreURL}}">more</a> · {{end}}<a href="/__cmdlog?show=0">hide</a></span></div>
  {{range .Entries}}
  <div><span class="ts">{{.When.Format "15:04:05"}}</span> <span class="cmd">{{.Label}}</span> <code>{{.Result.Command}}</code></div>
  {{if .Result.Stdout}}<pre>{{.Result.Stdout}}</pre>{{end}}
  {{if .Result.Stderr}}<pre class="err">{{.Result.Stderr}}</pre>{{end}}
  {{if .Result.Error}}<pre class="err">{{.Result.Error}}</pre>{{end}}
  {{else}}<div class="ts">No results yet.</div>{{end}}
</div>
{{else}}
<div class="cmdlog"><a href="/__cmdlog?show=1">show results</a></div>
{{end}}
{{end}}
</body></html>`
