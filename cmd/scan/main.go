// 一次性扫描命令: 不依赖数据库与队列, 用内置规则分析单个 APK
//
//	scan <apk> [-xml] [-json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/apk-analysis/libdetect-go/internal/analyzer"
	"github.com/apk-analysis/libdetect-go/internal/catalog"
)

func main() {
	xmlOnly := flag.Bool("xml", false, "只输出美化后的清单 XML")
	jsonOut := flag.Bool("json", false, "输出完整 JSON 结果")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-xml] [-json] <apk>\n", os.Args[0])
		os.Exit(2)
	}
	apkPath := flag.Arg(0)

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)

	result, err := analyzer.New(logger).Analyze(context.Background(), apkPath, catalog.BuiltinTable(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze failed: %v\n", err)
		os.Exit(1)
	}

	if *xmlOnly {
		fmt.Println(result.XML)
		return
	}

	if *jsonOut {
		out := map[string]interface{}{
			"manifest":  result.Manifest,
			"native":    result.Native,
			"libraries": result.Libraries,
			"stats":     result.Stats,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// 默认输出: 摘要
	fmt.Printf("Package:     %s\n", result.Manifest.Package)
	fmt.Printf("Version:     %s (%s)\n", result.Manifest.VersionName, result.Manifest.VersionCode)
	fmt.Printf("Components:  %d activities, %d services, %d providers, %d receivers\n",
		len(result.Manifest.Activities), len(result.Manifest.Services),
		len(result.Manifest.Providers), len(result.Manifest.Receivers))
	fmt.Printf("Native libs: %d (ignored paths: %d)\n", len(result.Native.Entries), result.Native.IgnoredPaths)
	fmt.Println()

	if len(result.Libraries.Libraries) == 0 {
		fmt.Println("No third-party libraries identified.")
	} else {
		fmt.Printf("Identified libraries (%d):\n", len(result.Libraries.Libraries))
		for _, lib := range result.Libraries.Libraries {
			marker := ""
			if lib.Obfuscated {
				marker = " [obfuscated]"
			}
			fmt.Printf("  %-24s %-12s count=%d%s\n", lib.Label, lib.Category, lib.Count, marker)
		}
	}
	if result.Libraries.UnmatchedNative > 0 || result.Libraries.ObfuscatedNative > 0 {
		fmt.Printf("\nUnmatched native: %d, obfuscated: %d\n",
			result.Libraries.UnmatchedNative, result.Libraries.ObfuscatedNative)
	}
}
