package libmatch

import (
	"regexp"
	"strings"
)

// 版本号子串: 可选分隔符 + 可选 v + 点分数字组, 全局替换
var versionRe = regexp.MustCompile(`[-_.]?v?\d+(\.\d+)*`)

// 构建/架构/厂商后缀, 只在字符串末尾剥离, 允许一个前导分隔符
var buildSuffixes = []string{
	"debug", "release", "prod", "dev",
	"arm64-v8a", "armeabi-v7a", "armeabi", "x86_64", "x86", "mips64", "mips",
	"jiagu",
}

// 包名前缀归约的保留顶级段
var packagePrefixes = []string{"com_", "cn_", "org_", "io_", "net_", "android_"}

// 归一化变换链, 按固定顺序依次应用
// 每一步都是纯函数, 顺序即候选产出顺序
// 后缀剥离必须先于版本剥离: 版本正则会吃掉 armeabi-v7a 里的 -v7
var transforms = []func(string) string{
	stripBuildSuffixes,
	stripVersions,
	reducePackagePrefix,
}

// Candidates 为原始名称生成确定有序、去重后的候选拼写序列
// 同一输入永远得到同一序列 (缓存正确性的前提)
// 完整名形态的候选排在裸核心之前, 因为目录键通常是文件名形态
func Candidates(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	push := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	lower := strings.ToLower(raw)
	push(lower)

	// 1. 在完整名上累积应用变换链
	form := lower
	for _, t := range transforms {
		form = t(form)
		push(form)
	}

	// 2. 剥掉 lib/.so 包装后在核心上再走一遍, 每一步同时补出包装还原形态
	core := unwrap(lower)
	push(wrap(core))
	push(core)
	form = core
	for _, t := range transforms {
		form = t(form)
		push(wrap(form))
		push(form)
	}

	return out
}

func unwrap(s string) string {
	s = strings.TrimSuffix(s, ".so")
	s = strings.TrimPrefix(s, "lib")
	return s
}

func wrap(core string) string {
	if core == "" {
		return ""
	}
	return "lib" + core + ".so"
}

func stripVersions(s string) string {
	return versionRe.ReplaceAllString(s, "")
}

// stripBuildSuffixes 剥离末尾的构建/架构/厂商后缀
// 末尾的 .so 扩展名先摘下再剥离, 之后原样装回
func stripBuildSuffixes(s string) string {
	ext := ""
	if strings.HasSuffix(s, ".so") {
		ext = ".so"
		s = strings.TrimSuffix(s, ".so")
	}
	for changed := true; changed; {
		changed = false
		for _, suffix := range buildSuffixes {
			if !strings.HasSuffix(s, suffix) {
				continue
			}
			trimmed := strings.TrimSuffix(s, suffix)
			// 后缀必须独立成段: 前面是分隔符或整个名字就是后缀
			if trimmed == "" {
				s = ""
				changed = true
				break
			}
			if c := trimmed[len(trimmed)-1]; c == '-' || c == '_' || c == '.' {
				s = trimmed[:len(trimmed)-1]
				changed = true
				break
			}
		}
	}
	return s + ext
}

// reducePackagePrefix 包名前缀归约
// 以保留顶级段开头且按 _ 切分不少于三段时, 整个名字归约为最后一段
func reducePackagePrefix(s string) string {
	for _, prefix := range packagePrefixes {
		if strings.HasPrefix(s, prefix) {
			parts := strings.Split(s, "_")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
			return s
		}
	}
	return s
}
