package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string   `yaml:"mode"`
	Exchange    string   `yaml:"exchange"`
	Capital     float64  `yaml:"capital"`
	Watchlist   []string `yaml:"watchlist"`
	PollSeconds int      `yaml:"poll_seconds"`
	DataSource  string   `yaml:"data_source"`

	Session struct {
		Open          string `yaml:"open"`
		Close         string `yaml:"close"`
		WarmupMinutes int    `yaml:"warmup_minutes"`
		EntryCutoff   string `yaml:"entry_cutoff"`
		FlattenAt     string `yaml:"flatten_at"`
	} `yaml:"session"`

	Risk struct {
		MaxRiskPerTrade       float64 `yaml:"max_risk_per_trade"`
		MaxDailyLoss          float64 `yaml:"max_daily_loss"`
		MaxLosingTradesPerDay int     `yaml:"max_losing_trades_per_day"`
		PerSymbolAllocPct     float64 `yaml:"per_symbol_alloc_pct"`
		MaxDeployedPct        float64 `yaml:"max_deployed_pct"`
	} `yaml:"risk"`

	Strategies struct {
		Priority []string `yaml:"priority"`
		ORB      struct {
			VolumeMultiplier float64 `yaml:"volume_multiplier"`
			RSIThreshold     float64 `yaml:"rsi_threshold"`
			ATRStopMult      float64 `yaml:"atr_stop_mult"`
			RewardRatio      float64 `yaml:"reward_ratio"`
		} `yaml:"orb_supertrend"`
		EMA struct {
			UseVWAPFilter bool    `yaml:"use_vwap_filter"`
			UseRSIFilter  bool    `yaml:"use_rsi_filter"`
			RSIThreshold  float64 `yaml:"rsi_threshold"`
			ATRStopMult   float64 `yaml:"atr_stop_mult"`
			RewardRatio   float64 `yaml:"reward_ratio"`
			AllowShort    bool    `yaml:"allow_short"`
		} `yaml:"ema_trend"`
		VWAP struct {
			DeviationPct  float64 `yaml:"deviation_pct"`
			RSIOversold   float64 `yaml:"rsi_oversold"`
			RSIOverbought float64 `yaml:"rsi_overbought"`
			ATRStopMult   float64 `yaml:"atr_stop_mult"`
			RewardRatio   float64 `yaml:"reward_ratio"`
		} `yaml:"vwap_reversion"`
	} `yaml:"strategies"`

	Gates struct {
		MinRegimeConfidence   float64 `yaml:"min_regime_confidence"`
		LowConfidenceScale    float64 `yaml:"low_confidence_scale"`
		ContraSentimentScale  float64 `yaml:"contra_sentiment_scale"`
		ContraSentimentCutoff float64 `yaml:"contra_sentiment_cutoff"`
	} `yaml:"gates"`

	Bias struct {
		Multipliers map[string]float64 `yaml:"multipliers"`
	} `yaml:"bias"`

	Indicators struct {
		EMAFast              int     `yaml:"ema_fast"`
		EMASlow              int     `yaml:"ema_slow"`
		RSIPeriod            int     `yaml:"rsi_period"`
		ATRPeriod            int     `yaml:"atr_period"`
		SupertrendPeriod     int     `yaml:"supertrend_period"`
		SupertrendMultiplier float64 `yaml:"supertrend_multiplier"`
		VolumeWindow         int     `yaml:"volume_window"`
		ORBMinutes           int     `yaml:"orb_minutes"`
		IntervalMinutes      int     `yaml:"interval_minutes"`
		SwingLookback        int     `yaml:"swing_lookback"`
	} `yaml:"indicators"`

	Notify struct {
		Telegram struct {
			Enabled bool   `yaml:"enabled"`
			ChatID  string `yaml:"chat_id"`
		} `yaml:"telegram"`
		Kafka struct {
			Enabled bool     `yaml:"enabled"`
			Brokers []string `yaml:"brokers"`
			Topic   string   `yaml:"topic"`
		} `yaml:"kafka"`
	} `yaml:"notify"`
}

func (c *Config) Validate() error {
	if c.Mode != "PAPER" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'PAPER' or 'LIVE'", c.Mode)
	}
	if c.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %.2f", c.Capital)
	}
	if len(c.Watchlist) == 0 {
		return errors.New("watchlist cannot be empty")
	}
	if c.Risk.MaxRiskPerTrade <= 0 || c.Risk.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk.max_risk_per_trade must be in (0,1], got %.4f", c.Risk.MaxRiskPerTrade)
	}
	if c.Risk.MaxDailyLoss <= 0 || c.Risk.MaxDailyLoss > 1 {
		return fmt.Errorf("risk.max_daily_loss must be in (0,1], got %.4f", c.Risk.MaxDailyLoss)
	}
	if c.Risk.MaxLosingTradesPerDay < 1 {
		return fmt.Errorf("risk.max_losing_trades_per_day must be >= 1, got %d", c.Risk.MaxLosingTradesPerDay)
	}
	if len(c.Strategies.Priority) == 0 {
		return errors.New("strategies.priority cannot be empty")
	}
	for _, name := range c.Strategies.Priority {
		switch name {
		case "orb_supertrend", "ema_trend", "vwap_reversion":
		default:
			return fmt.Errorf("unknown strategy '%s' in strategies.priority", name)
		}
	}
	for stance, m := range c.Bias.Multipliers {
		if m < 0 {
			return fmt.Errorf("bias multiplier for '%s' cannot be negative, got %.2f", stance, m)
		}
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.PollSeconds == 0 {
		c.PollSeconds = 15
	}
	if c.Exchange == "" {
		c.Exchange = "NSE"
	}
	if c.DataSource == "" {
		c.DataSource = "REPLAY"
	}
	if c.Session.Open == "" {
		c.Session.Open = "09:15"
	}
	if c.Session.Close == "" {
		c.Session.Close = "15:30"
	}
	if c.Session.WarmupMinutes == 0 {
		c.Session.WarmupMinutes = 15
	}
	if c.Session.EntryCutoff == "" {
		c.Session.EntryCutoff = "14:45"
	}
	if c.Session.FlattenAt == "" {
		c.Session.FlattenAt = "15:15"
	}
	if c.Risk.PerSymbolAllocPct == 0 {
		c.Risk.PerSymbolAllocPct = 0.25
	}
	if c.Risk.MaxDeployedPct == 0 {
		c.Risk.MaxDeployedPct = 1.0
	}
	if c.Strategies.ORB.VolumeMultiplier == 0 {
		c.Strategies.ORB.VolumeMultiplier = 1.5
	}
	if c.Strategies.ORB.RSIThreshold == 0 {
		c.Strategies.ORB.RSIThreshold = 55
	}
	if c.Strategies.ORB.ATRStopMult == 0 {
		c.Strategies.ORB.ATRStopMult = 2.0
	}
	if c.Strategies.ORB.RewardRatio == 0 {
		c.Strategies.ORB.RewardRatio = 1.5
	}
	if c.Strategies.EMA.RSIThreshold == 0 {
		c.Strategies.EMA.RSIThreshold = 50
	}
	if c.Strategies.EMA.ATRStopMult == 0 {
		c.Strategies.EMA.ATRStopMult = 2.0
	}
	if c.Strategies.EMA.RewardRatio == 0 {
		c.Strategies.EMA.RewardRatio = 1.5
	}
	if c.Strategies.VWAP.DeviationPct == 0 {
		c.Strategies.VWAP.DeviationPct = 1.0
	}
	if c.Strategies.VWAP.RSIOversold == 0 {
		c.Strategies.VWAP.RSIOversold = 30
	}
	if c.Strategies.VWAP.RSIOverbought == 0 {
		c.Strategies.VWAP.RSIOverbought = 70
	}
	if c.Strategies.VWAP.ATRStopMult == 0 {
		c.Strategies.VWAP.ATRStopMult = 1.0
	}
	if c.Strategies.VWAP.RewardRatio == 0 {
		c.Strategies.VWAP.RewardRatio = 1.0
	}
	if c.Gates.LowConfidenceScale == 0 {
		c.Gates.LowConfidenceScale = 0.5
	}
	if c.Gates.ContraSentimentScale == 0 {
		c.Gates.ContraSentimentScale = 0.5
	}
	if c.Gates.ContraSentimentCutoff == 0 {
		c.Gates.ContraSentimentCutoff = -0.5
	}
	if len(c.Bias.Multipliers) == 0 {
		c.Bias.Multipliers = map[string]float64{
			"aggressive":   1.2,
			"moderate":     1.0,
			"conservative": 0.7,
			"defensive":    0.5,
		}
	}
	if c.Indicators.EMAFast == 0 {
		c.Indicators.EMAFast = 9
	}
	if c.Indicators.EMASlow == 0 {
		c.Indicators.EMASlow = 21
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.SupertrendPeriod == 0 {
		c.Indicators.SupertrendPeriod = 7
	}
	if c.Indicators.SupertrendMultiplier == 0 {
		c.Indicators.SupertrendMultiplier = 3.0
	}
	if c.Indicators.VolumeWindow == 0 {
		c.Indicators.VolumeWindow = 20
	}
	if c.Indicators.ORBMinutes == 0 {
		c.Indicators.ORBMinutes = 15
	}
	if c.Indicators.IntervalMinutes == 0 {
		c.Indicators.IntervalMinutes = 5
	}
	if c.Indicators.SwingLookback == 0 {
		c.Indicators.SwingLookback = 5
	}
}
