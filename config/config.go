package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juho05/log"
)

type StartupScanOption string

type CacheBackend string

type environment map[string]string

var (
	StartupScanDisabled StartupScanOption = "disabled"
	StartupScanQuick    StartupScanOption = "quick"
	StartupScanFull     StartupScanOption = "full"
)

func (s StartupScanOption) Valid() bool {
	return s == StartupScanDisabled || s == StartupScanQuick || s == StartupScanFull
}

var (
	CacheBackendFile  CacheBackend = "file"
	CacheBackendRedis CacheBackend = "redis"
)

func (c CacheBackend) Valid() bool {
	return c == CacheBackendFile || c == CacheBackendRedis
}

const CoverArtPriorityEmbedded = "embedded"

type Config struct {
	MusicDir            string
	DataDir             string
	ListenAddr          string
	LogLevel            log.Severity
	LogFile             *os.File
	StartupScan         StartupScanOption
	ScanInterval        time.Duration
	WatchMusicDir       bool
	ScanHidden          bool
	ScanWorkers         int
	CoverArtPriority    []string
	ComputeReplayGain   bool
	LoudnessConcurrency int
	LoudnessTimeout     time.Duration
	CacheBackend        CacheBackend
	RedisURL            string
	RedisKey            string
}

// Load loads the configuration from environment variables into Options.
// env should be of the same format as os.Environ()
func Load(environ []string) (Config, []error) {
	env := make(environment, len(environ))
	for _, e := range environ {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 {
			log.Fatalf("invalid environment variable format: %s", e)
		}
		env[parts[0]] = parts[1]
	}

	var errors []error

	var config Config
	var err error

	config.MusicDir, err = loadMusicDir(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.DataDir, err = loadDataDir(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.ListenAddr = loadListenAddr(env)

	config.LogLevel, err = loadLogLevel(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.LogFile, err = loadLogFile(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.StartupScan, err = loadStartupScan(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.ScanInterval, err = loadScanInterval(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.WatchMusicDir, err = loadWatchMusicDir(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.ScanHidden, err = loadScanHidden(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.ScanWorkers, err = loadScanWorkers(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.CoverArtPriority = loadCoverArtPriority(env)

	config.ComputeReplayGain, err = loadComputeReplayGain(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.LoudnessConcurrency, err = loadLoudnessConcurrency(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.LoudnessTimeout, err = loadLoudnessTimeout(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.CacheBackend, err = loadCacheBackend(env)
	if err != nil {
		errors = append(errors, err)
	}

	config.RedisURL, err = loadRedisURL(env, config.CacheBackend)
	if err != nil {
		errors = append(errors, err)
	}

	config.RedisKey = loadRedisKey(env)

	return config, errors
}

func loadMusicDir(env environment) (string, error) {
	return requiredString(env, "MUSIC_DIR")
}

func loadDataDir(env environment) (string, error) {
	return requiredString(env, "DATA_DIR")
}

func loadListenAddr(env environment) string {
	return optionalString(env, "LISTEN_ADDR", "0.0.0.0:8080")
}

func loadLogLevel(env environment) (log.Severity, error) {
	key := "LOG_LEVEL"
	def := log.INFO
	logLevelStr := env[key]
	if logLevelStr == "" {
		return def, nil
	}
	level, err := strconv.Atoi(logLevelStr)
	if err != nil {
		return def, newError(key, "invalid log level: must be an integer")
	}
	if level < int(log.NONE) || level > int(log.TRACE) {
		return def, newError(key, "invalid log level: valid values: 0 (none), 1 (fatal), 2 (error), 3 (warning), 4 (info), 5 (trace)")
	}
	return log.Severity(level), nil
}

// FIXME config should not be responsible for opening log file
func loadLogFile(env environment) (*os.File, error) {
	key := "LOG_FILE"
	def := os.Stderr
	if env[key] == "" {
		return def, nil
	}
	appnd, _ := strconv.ParseBool(env["LOG_APPEND"])
	if appnd {
		file, err := os.OpenFile(env[key], os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return def, wrapError(key, "failed to open log file (append)", err)
		}
		return file, nil
	} else {
		file, err := os.Create(env[key])
		if err != nil {
			return def, wrapError(key, "failed to open log file", err)
		}
		return file, nil
	}
}

func loadStartupScan(env environment) (StartupScanOption, error) {
	key := "STARTUP_SCAN"
	startupScan := StartupScanOption(optionalString(env, key, string(StartupScanQuick)))
	if !startupScan.Valid() {
		return "", newError(key, "invalid startup scan option (valid: disabled, quick, full)")
	}
	return startupScan, nil
}

func loadScanInterval(env environment) (time.Duration, error) {
	return duration(env, "SCAN_INTERVAL", time.Hour)
}

func loadWatchMusicDir(env environment) (bool, error) {
	return boolean(env, "WATCH_MUSIC_DIR", false)
}

func loadScanHidden(env environment) (bool, error) {
	return boolean(env, "SCAN_HIDDEN", false)
}

func loadScanWorkers(env environment) (int, error) {
	return positiveInt(env, "SCAN_WORKERS", 8)
}

func loadCoverArtPriority(env environment) []string {
	list := optionalStringList(env, "COVER_ART_PRIORITY", []string{"cover.*", "folder.*", "front.*", CoverArtPriorityEmbedded})
	for i := range list {
		list[i] = strings.ToLower(list[i])
	}
	return list
}

func loadComputeReplayGain(env environment) (bool, error) {
	return boolean(env, "COMPUTE_REPLAY_GAIN", false)
}

func loadLoudnessConcurrency(env environment) (int, error) {
	return positiveInt(env, "LOUDNESS_CONCURRENCY", 2)
}

func loadLoudnessTimeout(env environment) (time.Duration, error) {
	key := "LOUDNESS_TIMEOUT"
	d, err := duration(env, key, 5*time.Minute)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, newError(key, "must be greater than zero")
	}
	return d, nil
}

func loadCacheBackend(env environment) (CacheBackend, error) {
	key := "CACHE_BACKEND"
	backend := CacheBackend(optionalString(env, key, string(CacheBackendFile)))
	if !backend.Valid() {
		return "", newError(key, "invalid cache backend (valid: file, redis)")
	}
	return backend, nil
}

func loadRedisURL(env environment, backend CacheBackend) (string, error) {
	if backend != CacheBackendRedis {
		return optionalString(env, "REDIS_URL", ""), nil
	}
	return requiredString(env, "REDIS_URL")
}

func loadRedisKey(env environment) string {
	return optionalString(env, "REDIS_KEY", "melodeon:scan-cache")
}

func optionalString(env environment, key, def string) string {
	str := env[key]
	if str == "" {
		return def
	}
	return str
}

func optionalStringList(env environment, key string, def []string) []string {
	str, ok := env[key]
	if !ok {
		return def
	}
	if str == "" {
		return make([]string, 0)
	}
	list := strings.Split(str, ",")
	newList := make([]string, 0, len(list))
	for _, pattern := range list {
		pattern = strings.TrimSpace(pattern)
		if pattern != "" {
			newList = append(newList, pattern)
		}
	}
	return newList
}

func requiredString(env environment, key string) (string, error) {
	str := env[key]
	if str == "" {
		return "", newError(key, "must not be empty")
	}
	return str, nil
}

func positiveInt(env environment, key string, def int) (int, error) {
	str := env[key]
	if str == "" {
		return def, nil
	}
	i, err := strconv.Atoi(str)
	if err != nil {
		return 0, newError(key, "must be an integer")
	}
	if i <= 0 {
		return 0, newError(key, "must be greater than zero")
	}
	return i, nil
}

func duration(env environment, key string, def time.Duration) (time.Duration, error) {
	str := env[key]
	if str == "" {
		return def, nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, newError(key, "must be a duration (e.g. 30m, 1h)")
	}
	if d < 0 {
		return 0, newError(key, "must not be negative")
	}
	return d, nil
}

func boolean(env environment, key string, def bool) (bool, error) {
	str := env[key]
	if str == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(str)
	if err != nil {
		return false, newError(key, "must be a boolean")
	}
	return b, nil
}
