// Package manifest 从序列化后的清单 XML 文本中提取基础信息与组件
// 基于正则的文本提取, 不依赖节点树结构
package manifest

import (
	"regexp"

	"github.com/sirupsen/logrus"
)

// Info 清单提取结果
type Info struct {
	Package     string   `json:"package"`
	VersionName string   `json:"version_name"`
	VersionCode string   `json:"version_code"`
	MinSDK      string   `json:"min_sdk"`
	TargetSDK   string   `json:"target_sdk"`
	AppLabel    string   `json:"app_label"`
	Permissions []string `json:"permissions"`
	Activities  []string `json:"activities"`
	Services    []string `json:"services"`
	Providers   []string `json:"providers"`
	Receivers   []string `json:"receivers"`
}

// ComponentCount 四类组件总数
func (i *Info) ComponentCount() int {
	return len(i.Activities) + len(i.Services) + len(i.Providers) + len(i.Receivers)
}

// Extractor 清单文本提取器
type Extractor struct {
	logger *logrus.Logger
}

// NewExtractor 创建提取器
func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{logger: logger}
}

var (
	packageRe     = regexp.MustCompile(`<manifest[^>]*?\spackage="([^"]+)"`)
	versionNameRe = regexp.MustCompile(`<manifest[^>]*?\sandroid:versionName="([^"]+)"`)
	versionCodeRe = regexp.MustCompile(`<manifest[^>]*?\sandroid:versionCode="([^"]+)"`)
	minSdkRe      = regexp.MustCompile(`<uses-sdk[^>]*?\sandroid:minSdkVersion="([^"]+)"`)
	targetSdkRe   = regexp.MustCompile(`<uses-sdk[^>]*?\sandroid:targetSdkVersion="([^"]+)"`)
	appLabelRe    = regexp.MustCompile(`<application[^>]*?\sandroid:label="([^"]+)"`)
	permissionRe  = regexp.MustCompile(`<uses-permission[^>]*?\sandroid:name="([^"]+)"`)
	activityRe    = regexp.MustCompile(`<activity[^>]*?\sandroid:name="([^"]+)"`)
	serviceRe     = regexp.MustCompile(`<service[^>]*?\sandroid:name="([^"]+)"`)
	providerRe    = regexp.MustCompile(`<provider[^>]*?\sandroid:name="([^"]+)"`)
	receiverRe    = regexp.MustCompile(`<receiver[^>]*?\sandroid:name="([^"]+)"`)
)

// Extract 从清单 XML 文本提取基础信息与组件列表
// 重复声明的组件原样保留, 不去重
func (e *Extractor) Extract(xml string) *Info {
	info := &Info{}

	// 1. 基础字段
	info.Package = firstGroup(packageRe, xml)
	info.VersionName = firstGroup(versionNameRe, xml)
	info.VersionCode = firstGroup(versionCodeRe, xml)
	info.MinSDK = firstGroup(minSdkRe, xml)
	info.TargetSDK = firstGroup(targetSdkRe, xml)
	info.AppLabel = firstGroup(appLabelRe, xml)

	// 2. 权限
	info.Permissions = allGroups(permissionRe, xml)

	// 3. 四类组件
	info.Activities = allGroups(activityRe, xml)
	info.Services = allGroups(serviceRe, xml)
	info.Providers = allGroups(providerRe, xml)
	info.Receivers = allGroups(receiverRe, xml)

	if e.logger != nil {
		e.logger.WithFields(logrus.Fields{
			"package":     info.Package,
			"activities":  len(info.Activities),
			"services":    len(info.Services),
			"providers":   len(info.Providers),
			"receivers":   len(info.Receivers),
			"permissions": len(info.Permissions),
		}).Debug("Manifest extracted")
	}
	return info
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

func allGroups(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		if len(m) > 1 {
			out = append(out, m[1])
		}
	}
	return out
}
