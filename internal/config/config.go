package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/trendfront/shopagent/internal/storage"
)

type ArkConfig struct {
	APIKey  string `mapstructure:"api_key"`
	ModelID string `mapstructure:"model_id"`
	BaseURL string `mapstructure:"base_url"`
}

// EmbeddingConfig 配置嵌入模型客户端（OpenAI 兼容接口，默认指向硅基流动）。
type EmbeddingConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// KnowledgeConfig 配置知识库：索引目录、检索条数与构建参数。
type KnowledgeConfig struct {
	Dir          string   `mapstructure:"dir"`
	TopK         int      `mapstructure:"top_k"`
	ChunkSize    int      `mapstructure:"chunk_size"`
	ChunkOverlap int      `mapstructure:"chunk_overlap"`
	Sources      []string `mapstructure:"sources"`
}

// DataConfig 配置商品/订单两个本地表格数据源的路径。
type DataConfig struct {
	ProductsPath string `mapstructure:"products_path"`
	OrdersPath   string `mapstructure:"orders_path"`
}

type Config struct {
	Storage   storage.Config  `mapstructure:"storage"`
	Ark       ArkConfig       `mapstructure:"ark"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Data      DataConfig      `mapstructure:"data"`
	LogLevel  string          `mapstructure:"log_level"`
}

func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// 默认搜索路径
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.shopagent")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SHOPAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 注意：Viper 的 Unmarshal 只反序列化它“知道”的 key（来自配置文件、
	// Defaults 或显式 Bind），所以默认值必须先注册。
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件未找到，使用默认值
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Ark.APIKey == "" {
		return fmt.Errorf("ark.api_key is required (or set ARK_API_KEY env var)")
	}
	if c.Ark.ModelID == "" {
		return fmt.Errorf("ark.model_id is required (or set ARK_MODEL_ID env var)")
	}
	if c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required (or set EMBEDDING_API_KEY env var)")
	}
	if c.Knowledge.TopK <= 0 {
		return fmt.Errorf("knowledge.top_k must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	// -------------------------------------------------------------------------
	// Storage Defaults (会话转录/审计存储默认值)
	// -------------------------------------------------------------------------
	v.SetDefault("storage.path", "shopagent.db")
	v.SetDefault("storage.busy_timeout", 5*time.Second)

	// -------------------------------------------------------------------------
	// Ark AI Defaults (对话模型默认值)
	// -------------------------------------------------------------------------
	v.SetDefault("ark.api_key", "")
	v.SetDefault("ark.model_id", "")
	v.SetDefault("ark.base_url", "https://ark.cn-beijing.volces.com/api/v3")

	v.BindEnv("ark.api_key", "ARK_API_KEY")
	v.BindEnv("ark.model_id", "ARK_MODEL_ID")
	v.BindEnv("ark.base_url", "ARK_BASE_URL")

	// -------------------------------------------------------------------------
	// Embedding Defaults (嵌入模型默认值，OpenAI 兼容)
	// -------------------------------------------------------------------------
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "Qwen/Qwen3-Embedding-0.6B")
	v.SetDefault("embedding.base_url", "https://api.siliconflow.cn/v1")
	v.SetDefault("embedding.timeout", 30*time.Second)

	v.BindEnv("embedding.api_key", "EMBEDDING_API_KEY")

	// -------------------------------------------------------------------------
	// Knowledge Defaults (知识库默认值)
	// -------------------------------------------------------------------------
	v.SetDefault("knowledge.dir", "knowledge_base")
	v.SetDefault("knowledge.top_k", 3)
	v.SetDefault("knowledge.chunk_size", 200)
	v.SetDefault("knowledge.chunk_overlap", 20)
	v.SetDefault("knowledge.sources", []string{"data/faq.txt", "data/faq_from_ecd_train.txt"})

	// -------------------------------------------------------------------------
	// Data Defaults (表格数据源默认值)
	// -------------------------------------------------------------------------
	v.SetDefault("data.products_path", "data/products.csv")
	v.SetDefault("data.orders_path", "data/orders.csv")
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Storage: storage.Config{
			Path:        "shopagent.db",
			BusyTimeout: 5 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Model:   "Qwen/Qwen3-Embedding-0.6B",
			BaseURL: "https://api.siliconflow.cn/v1",
			Timeout: 30 * time.Second,
		},
		Knowledge: KnowledgeConfig{
			Dir:          "knowledge_base",
			TopK:         3,
			ChunkSize:    200,
			ChunkOverlap: 20,
			Sources:      []string{"data/faq.txt", "data/faq_from_ecd_train.txt"},
		},
		Data: DataConfig{
			ProductsPath: "data/products.csv",
			OrdersPath:   "data/orders.csv",
		},
	}
}
