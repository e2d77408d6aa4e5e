package catalog

import "github.com/apk-analysis/libdetect-go/internal/domain"

// BuiltinRules 内置第三方库规则
// Key 为归一化工件名, 同一逻辑库的原生规则与组件规则共享同一 UUID
func BuiltinRules() []domain.LibraryRule {
	return []domain.LibraryRule{
		// ==================== 跨平台框架 ====================
		{
			Key: "libflutter.so", Kind: "native",
			UUID: "5d4a1c0e-90cf-4f24-9a3b-1f6c2fb0a001", Label: "Flutter",
			Category: "framework", CategoryLabel: "跨平台框架", Developer: "Google",
			Description: "Google 跨平台 UI 框架", SourceLink: "https://flutter.dev",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libapp.so", Kind: "native",
			UUID: "5d4a1c0e-90cf-4f24-9a3b-1f6c2fb0a001", Label: "Flutter",
			Category: "framework", CategoryLabel: "跨平台框架", Developer: "Google",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libreactnativejni.so", Kind: "native",
			UUID: "7b2e9f11-6a5d-4c38-8d02-93f7c4d0a002", Label: "React Native",
			Category: "framework", CategoryLabel: "跨平台框架", Developer: "Meta",
			SourceLink: "https://reactnative.dev",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libhermes.so", Kind: "native",
			UUID: "7b2e9f11-6a5d-4c38-8d02-93f7c4d0a002", Label: "React Native",
			Category: "framework", CategoryLabel: "跨平台框架", Developer: "Meta",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libunity.so", Kind: "native",
			UUID: "c6f03d72-2be1-4a99-b1d4-50a8e1c0a003", Label: "Unity",
			Category: "game", CategoryLabel: "游戏引擎", Developer: "Unity Technologies",
			SourceLink: "https://unity.com",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libil2cpp.so", Kind: "native",
			UUID: "c6f03d72-2be1-4a99-b1d4-50a8e1c0a003", Label: "Unity",
			Category: "game", CategoryLabel: "游戏引擎", Developer: "Unity Technologies",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libcocos2dcpp.so", Kind: "native",
			UUID: "e8a47b60-31fd-4c15-a2e9-77b3d2c0a004", Label: "Cocos2d-x",
			Category: "game", CategoryLabel: "游戏引擎", Developer: "Cocos",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 崩溃收集 / 质量监控 ====================
		{
			Key: "libbugly.so", Kind: "native",
			UUID: "19c5ae83-4d27-4f60-bb71-08e9a5c0a005", Label: "Bugly",
			Category: "crash", CategoryLabel: "崩溃收集", Developer: "腾讯",
			SourceLink: "https://bugly.qq.com",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.tencent.bugly.beta.ui.BetaActivity", Kind: "activities",
			UUID: "19c5ae83-4d27-4f60-bb71-08e9a5c0a005", Label: "Bugly",
			Category: "crash", CategoryLabel: "崩溃收集", Developer: "腾讯",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libacra.so", Kind: "native",
			UUID: "2f81c7d4-95a0-4b3e-8c56-db12f4c0a006", Label: "ACRA",
			Category: "crash", CategoryLabel: "崩溃收集", Developer: "ACRA",
			SourceLink: "https://github.com/ACRA/acra",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "org.acra.sender.SenderService", Kind: "services",
			UUID: "2f81c7d4-95a0-4b3e-8c56-db12f4c0a006", Label: "ACRA",
			Category: "crash", CategoryLabel: "崩溃收集", Developer: "ACRA",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libxcrash.so", Kind: "native",
			UUID: "3a90d8e5-a6b1-4c4f-9d67-ec23a5c0a007", Label: "xCrash",
			Category: "crash", CategoryLabel: "崩溃收集", Developer: "爱奇艺",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 存储 ====================
		{
			Key: "libmmkv.so", Kind: "native",
			UUID: "4ba1e9f6-b7c2-4d50-ae78-fd34b6c0a008", Label: "MMKV",
			Category: "storage", CategoryLabel: "本地存储", Developer: "腾讯",
			Description: "基于 mmap 的高性能键值存储", SourceLink: "https://github.com/Tencent/MMKV",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "librealm-jni.so", Kind: "native",
			UUID: "5cb2fa07-c8d3-4e61-bf89-0e45c7c0a009", Label: "Realm",
			Category: "storage", CategoryLabel: "本地存储", Developer: "MongoDB",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libsqlcipher.so", Kind: "native",
			UUID: "6dc30b18-d9e4-4f72-c09a-1f56d8c0a00a", Label: "SQLCipher",
			Category: "storage", CategoryLabel: "本地存储", Developer: "Zetetic",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 推送 ====================
		{
			Key: "libjpush.so", Kind: "native",
			UUID: "7ed41c29-eaf5-4083-d1ab-2067e9c0a00b", Label: "极光推送",
			Category: "push", CategoryLabel: "消息推送", Developer: "极光",
			SourceLink: "https://www.jiguang.cn",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "cn.jpush.android.service.PushService", Kind: "services",
			UUID: "7ed41c29-eaf5-4083-d1ab-2067e9c0a00b", Label: "极光推送",
			Category: "push", CategoryLabel: "消息推送", Developer: "极光",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "cn.jpush.android.service.PushReceiver", Kind: "receivers",
			UUID: "7ed41c29-eaf5-4083-d1ab-2067e9c0a00b", Label: "极光推送",
			Category: "push", CategoryLabel: "消息推送", Developer: "极光",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.google.firebase.messaging.FirebaseMessagingService", Kind: "services",
			UUID: "8fe52d3a-0b06-4194-e2bc-3178fac0a00c", Label: "Firebase Cloud Messaging",
			Category: "push", CategoryLabel: "消息推送", Developer: "Google",
			SourceLink: "https://firebase.google.com",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.google.firebase.provider.FirebaseInitProvider", Kind: "providers",
			UUID: "8fe52d3a-0b06-4194-e2bc-3178fac0a00c", Label: "Firebase Cloud Messaging",
			Category: "push", CategoryLabel: "消息推送", Developer: "Google",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 统计分析 ====================
		{
			Key: "libumeng-spy.so", Kind: "native",
			UUID: "90f63e4b-1c17-42a5-f3cd-42890bc0a00d", Label: "友盟统计",
			Category: "analytics", CategoryLabel: "统计分析", Developer: "友盟",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.umeng.message.UmengIntentService", Kind: "services",
			UUID: "90f63e4b-1c17-42a5-f3cd-42890bc0a00d", Label: "友盟统计",
			Category: "analytics", CategoryLabel: "统计分析", Developer: "友盟",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 地图定位 ====================
		{
			Key: "libamap3dmap.so", Kind: "native",
			UUID: "a1074f5c-2d28-43b6-04de-539a1cc0a00e", Label: "高德地图",
			Category: "map", CategoryLabel: "地图定位", Developer: "高德",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.amap.api.location.APSService", Kind: "services",
			UUID: "a1074f5c-2d28-43b6-04de-539a1cc0a00e", Label: "高德地图",
			Category: "map", CategoryLabel: "地图定位", Developer: "高德",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libBaiduMapSDK_base.so", Kind: "native",
			UUID: "b218605d-3e39-44c7-15ef-64ab2dc0a00f", Label: "百度地图",
			Category: "map", CategoryLabel: "地图定位", Developer: "百度",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 支付 / 社交 ====================
		{
			Key: "com.alipay.sdk.app.H5PayActivity", Kind: "activities",
			UUID: "c329716e-4f4a-45d8-26f0-75bc3ec0a010", Label: "支付宝支付",
			Category: "payment", CategoryLabel: "支付", Developer: "蚂蚁集团",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "com.tencent.mm.opensdk", Kind: "activities",
			UUID: "d43a827f-505b-46e9-3701-86cd4fc0a011", Label: "微信开放平台",
			Category: "social", CategoryLabel: "社交分享", Developer: "腾讯",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},

		// ==================== 网络 / 媒体 ====================
		{
			Key: "libijkplayer.so", Kind: "native",
			UUID: "e54b9380-616c-47fa-4812-97de50c0a012", Label: "ijkplayer",
			Category: "media", CategoryLabel: "音视频", Developer: "bilibili",
			SourceLink: "https://github.com/bilibili/ijkplayer",
			Status:     domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libopencv_java4.so", Kind: "native",
			UUID: "f65ca491-727d-480b-5923-a8ef61c0a013", Label: "OpenCV",
			Category: "media", CategoryLabel: "图像处理", Developer: "OpenCV",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
		{
			Key: "libweexjsc.so", Kind: "native",
			UUID: "076db5a2-838e-491c-6a34-b9f072c0a014", Label: "Weex",
			Category: "framework", CategoryLabel: "跨平台框架", Developer: "阿里巴巴",
			Status: domain.RuleStatusEnabled, Source: domain.RuleSourceBuiltin,
		},
	}
}
