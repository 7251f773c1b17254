package platform

// Tag 平台标识
type Tag string

const (
	YouTube   Tag = "youtube"
	Instagram Tag = "instagram"
	Facebook  Tag = "facebook"
	Unknown   Tag = "unknown"
)

// String 返回平台名称
func (t Tag) String() string {
	return string(t)
}

// Supported 返回所有受支持平台, 顺序即检测顺序
func Supported() []Tag {
	return []Tag{YouTube, Instagram, Facebook}
}

// Config 平台主配置
type Config struct {
	CookieFile    string   // cookie 文件路径, 文件可以不存在
	UserAgent     string   // --user-agent
	SleepInterval int      // --sleep-interval (秒)
	ExtraArgs     []string // 平台特定参数
	Referer       string   // --referer, 为空则不传
}

// FallbackStrategy 主尝试耗尽后按顺序尝试的备用调用配置
type FallbackStrategy struct {
	Name          string
	UserAgent     string
	ExtraArgs     []string
	UseCookies    bool
	SleepInterval int
	Referer       string
}

// Apply 以策略覆盖主配置, 返回本次调用使用的配置
func (s FallbackStrategy) Apply(base Config) Config {
	cfg := Config{
		UserAgent:     s.UserAgent,
		SleepInterval: base.SleepInterval,
		ExtraArgs:     append([]string(nil), s.ExtraArgs...),
		Referer:       base.Referer,
	}
	if s.UseCookies {
		cfg.CookieFile = base.CookieFile
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = base.UserAgent
	}
	if s.SleepInterval > 0 {
		cfg.SleepInterval = s.SleepInterval
	}
	if s.Referer != "" {
		cfg.Referer = s.Referer
	}
	return cfg
}

// Profile 单个平台的主配置与回退策略列表
type Profile struct {
	Config    Config
	Fallbacks []FallbackStrategy
}
