package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" android:versionCode="42" android:versionName="1.2.3" package="com.example.demo">
	<uses-sdk android:minSdkVersion="21" android:targetSdkVersion="34" />
	<uses-permission android:name="android.permission.INTERNET" />
	<uses-permission android:name="android.permission.CAMERA" />
	<application android:label="Demo App" android:name=".DemoApplication">
		<activity android:name=".MainActivity">
			<intent-filter>
				<action android:name="android.intent.action.MAIN" />
			</intent-filter>
		</activity>
		<activity android:name="com.thirdparty.sdk.WebActivity" />
		<activity android:name=".MainActivity" />
		<service android:name="com.jpush.android.service.PushService" />
		<provider android:name="androidx.core.content.FileProvider" />
		<receiver android:name=".BootReceiver" />
	</application>
</manifest>
`

func TestExtract(t *testing.T) {
	info := NewExtractor(nil).Extract(sampleXML)

	assert.Equal(t, "com.example.demo", info.Package)
	assert.Equal(t, "1.2.3", info.VersionName)
	assert.Equal(t, "42", info.VersionCode)
	assert.Equal(t, "21", info.MinSDK)
	assert.Equal(t, "34", info.TargetSDK)
	assert.Equal(t, "Demo App", info.AppLabel)

	assert.Equal(t, []string{
		"android.permission.INTERNET",
		"android.permission.CAMERA",
	}, info.Permissions)

	// 重复声明的 Activity 原样保留
	assert.Equal(t, []string{
		".MainActivity",
		"com.thirdparty.sdk.WebActivity",
		".MainActivity",
	}, info.Activities)
	assert.Equal(t, []string{"com.jpush.android.service.PushService"}, info.Services)
	assert.Equal(t, []string{"androidx.core.content.FileProvider"}, info.Providers)
	assert.Equal(t, []string{".BootReceiver"}, info.Receivers)
	assert.Equal(t, 6, info.ComponentCount())
}

func TestExtractEmpty(t *testing.T) {
	info := NewExtractor(nil).Extract("")
	require.NotNil(t, info)
	assert.Empty(t, info.Package)
	assert.Empty(t, info.Activities)
	assert.Equal(t, 0, info.ComponentCount())
}

func TestExtractActionNotTreatedAsComponent(t *testing.T) {
	// intent-filter 里的 action 不是组件声明
	info := NewExtractor(nil).Extract(sampleXML)
	for _, a := range info.Activities {
		assert.NotEqual(t, "android.intent.action.MAIN", a)
	}
}
