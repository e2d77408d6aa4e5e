// Package report 把库识别结果渲染成 HTML 报告页面
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/libmatch"
)

// Renderer HTML 报告渲染器
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer 解析内置模板
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// viewModel 模板数据
type viewModel struct {
	Report      *domain.LibraryReport
	Libraries   []libmatch.MatchedLibrary
	AnalyzedAt  string
	ManifestXML string
}

// Render 渲染报告页面
func (r *Renderer) Render(w io.Writer, rep *domain.LibraryReport) error {
	var libraries []libmatch.MatchedLibrary
	if rep.LibrariesJSON != "" {
		if err := json.Unmarshal([]byte(rep.LibrariesJSON), &libraries); err != nil {
			return fmt.Errorf("failed to unmarshal libraries: %w", err)
		}
	}

	vm := viewModel{
		Report:      rep,
		Libraries:   libraries,
		AnalyzedAt:  rep.UpdatedAt.Format("2006-01-02 15:04:05"),
		ManifestXML: rep.ManifestXML,
	}
	if err := r.tmpl.Execute(w, vm); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>第三方库识别报告 - {{.Report.PackageName}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            background: #F5F7FA;
            min-height: 100vh;
        }
        .main-container { max-width: 1100px; margin: 0 auto; padding: 30px; }
        .header h1 { font-size: 26px; color: #1E293B; font-weight: 600; margin-bottom: 6px; }
        .header .subtitle { color: #64748B; font-size: 14px; margin-bottom: 24px; }
        .content-section {
            background: white; border-radius: 16px; padding: 24px;
            box-shadow: 0 1px 3px rgba(0, 0, 0, 0.05); margin-bottom: 20px;
        }
        .section-title { font-size: 18px; font-weight: 600; color: #1E293B; margin-bottom: 16px; }
        .info-grid {
            display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 16px;
        }
        .info-item {
            padding: 16px; background: #F8FAFC; border-radius: 12px;
            border-left: 4px solid #5B68FF;
        }
        .info-label { font-size: 12px; color: #64748B; margin-bottom: 4px; font-weight: 500; }
        .info-value { font-size: 15px; color: #1E293B; font-weight: 600; word-break: break-all; }
        .stats-grid {
            display: grid; grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 14px;
        }
        .stat-card { padding: 18px; border-radius: 12px; color: white; text-align: center; background: #5B68FF; }
        .stat-card.warn { background: #F59E0B; }
        .stat-card.muted { background: #64748B; }
        .stat-label { font-size: 12px; opacity: 0.9; margin-bottom: 6px; }
        .stat-number { font-size: 24px; font-weight: 700; }
        .data-table { width: 100%; border-collapse: collapse; margin-top: 8px; }
        .data-table th {
            text-align: left; padding: 10px 12px; font-size: 13px; color: #64748B;
            border-bottom: 2px solid #E2E8F0;
        }
        .data-table td { padding: 10px 12px; font-size: 14px; color: #1E293B; border-bottom: 1px solid #F1F5F9; }
        .badge {
            display: inline-block; padding: 2px 10px; border-radius: 10px;
            font-size: 12px; background: #EEF2FF; color: #5B68FF;
        }
        .badge.obfuscated { background: #FEF3C7; color: #B45309; }
        pre.manifest {
            background: #0F172A; color: #E2E8F0; border-radius: 12px;
            padding: 18px; overflow-x: auto; font-size: 13px; line-height: 1.5;
        }
        .empty { color: #94A3B8; font-size: 14px; padding: 12px 0; }
    </style>
</head>
<body>
<div class="main-container">
    <div class="header">
        <h1>第三方库识别报告</h1>
        <div class="subtitle">任务 {{.Report.TaskID}} · 分析时间 {{.AnalyzedAt}}</div>
    </div>

    <div class="content-section">
        <div class="section-title">应用信息</div>
        <div class="info-grid">
            <div class="info-item"><div class="info-label">包名</div><div class="info-value">{{.Report.PackageName}}</div></div>
            <div class="info-item"><div class="info-label">应用名</div><div class="info-value">{{if .Report.AppLabel}}{{.Report.AppLabel}}{{else}}-{{end}}</div></div>
            <div class="info-item"><div class="info-label">版本</div><div class="info-value">{{.Report.VersionName}} ({{.Report.VersionCode}})</div></div>
            <div class="info-item"><div class="info-label">SDK</div><div class="info-value">min {{.Report.MinSDK}} / target {{.Report.TargetSDK}}</div></div>
        </div>
    </div>

    <div class="content-section">
        <div class="section-title">组件统计</div>
        <div class="stats-grid">
            <div class="stat-card"><div class="stat-label">Activity</div><div class="stat-number">{{.Report.ActivityCount}}</div></div>
            <div class="stat-card"><div class="stat-label">Service</div><div class="stat-number">{{.Report.ServiceCount}}</div></div>
            <div class="stat-card"><div class="stat-label">Provider</div><div class="stat-number">{{.Report.ProviderCount}}</div></div>
            <div class="stat-card"><div class="stat-label">Receiver</div><div class="stat-number">{{.Report.ReceiverCount}}</div></div>
            <div class="stat-card"><div class="stat-label">权限</div><div class="stat-number">{{.Report.PermissionCount}}</div></div>
            <div class="stat-card"><div class="stat-label">原生库</div><div class="stat-number">{{.Report.NativeLibCount}}</div></div>
        </div>
    </div>

    <div class="content-section">
        <div class="section-title">识别结果 ({{.Report.MatchedCount}})</div>
        {{if .Libraries}}
        <table class="data-table">
            <tr><th>库</th><th>分类</th><th>开发者</th><th>命中次数</th><th>架构</th><th>标记</th></tr>
            {{range .Libraries}}
            <tr>
                <td>{{.Label}}</td>
                <td><span class="badge">{{if .CategoryLabel}}{{.CategoryLabel}}{{else}}{{.Category}}{{end}}</span></td>
                <td>{{if .Developer}}{{.Developer}}{{else}}-{{end}}</td>
                <td>{{.Count}}</td>
                <td>{{range $i, $a := .Architectures}}{{if $i}}, {{end}}{{$a}}{{end}}</td>
                <td>{{if .Obfuscated}}<span class="badge obfuscated">混淆命名</span>{{end}}</td>
            </tr>
            {{end}}
        </table>
        {{else}}
        <div class="empty">未识别出任何第三方库</div>
        {{end}}
    </div>

    <div class="content-section">
        <div class="section-title">解析质量</div>
        <div class="stats-grid">
            <div class="stat-card muted"><div class="stat-label">未匹配原生库</div><div class="stat-number">{{.Report.UnmatchedNative}}</div></div>
            <div class="stat-card warn"><div class="stat-label">混淆命名</div><div class="stat-number">{{.Report.ObfuscatedNative}}</div></div>
            <div class="stat-card muted"><div class="stat-label">跳过的未知字</div><div class="stat-number">{{.Report.SkippedWords}}</div></div>
            <div class="stat-card muted"><div class="stat-label">标签不匹配</div><div class="stat-number">{{.Report.TagMismatches}}</div></div>
            <div class="stat-card muted"><div class="stat-label">忽略的路径</div><div class="stat-number">{{.Report.IgnoredPaths}}</div></div>
        </div>
    </div>

    {{if .ManifestXML}}
    <div class="content-section">
        <div class="section-title">AndroidManifest.xml</div>
        <pre class="manifest">{{.ManifestXML}}</pre>
    </div>
    {{end}}
</div>
</body>
</html>
`
