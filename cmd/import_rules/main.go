// 规则导入命令: 把 JSON 文件里的库规则批量写入数据库
//
//	import_rules -config ./configs/config.yaml -file rules.json
//
// JSON 格式: [{"key":"libmmkv.so","kind":"native","uuid":"...","label":"MMKV",...}]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/apk-analysis/libdetect-go/internal/config"
	"github.com/apk-analysis/libdetect-go/internal/domain"
	"github.com/apk-analysis/libdetect-go/internal/repository"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	rulesPath := flag.String("file", "", "规则 JSON 文件路径")
	flag.Parse()

	if *rulesPath == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.InitLogger(&cfg.Log)

	data, err := os.ReadFile(*rulesPath)
	if err != nil {
		log.Fatalf("Failed to read rules file: %v", err)
	}

	var rules []domain.LibraryRule
	if err := json.Unmarshal(data, &rules); err != nil {
		log.Fatalf("Failed to parse rules file: %v", err)
	}
	if len(rules) == 0 {
		log.Fatal("Rules file is empty")
	}

	for i := range rules {
		rules[i].ID = 0
		rules[i].Source = domain.RuleSourceImported
		if rules[i].Status == "" {
			rules[i].Status = domain.RuleStatusEnabled
		}
		if rules[i].Key == "" || rules[i].Kind == "" || rules[i].Label == "" {
			log.Fatalf("Rule %d is missing key/kind/label", i)
		}
	}

	db, err := repository.InitDB(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}

	ruleRepo := repository.NewRuleRepository(db)
	if err := ruleRepo.CreateRules(context.Background(), rules); err != nil {
		log.Fatalf("Failed to import rules: %v", err)
	}

	fmt.Printf("Imported %d rules from %s\n", len(rules), *rulesPath)
}
