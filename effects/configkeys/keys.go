// Package configkeys names the binding keys effect handlers read their configuration from.
package configkeys

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectLogPrefix = ConfigEffectPrefix + delimiter + "log"

	ConfigEffectLogHandlerPrefix     = ConfigEffectLogPrefix + delimiter + "handler"
	ConfigEffectLogHandlerBufferSize = ConfigEffectLogHandlerPrefix + delimiter + "buffer_size"

	ConfigEffectConcurrencyPrefix = ConfigEffectPrefix + delimiter + "concurrency"

	ConfigEffectConcurrencyHandlerPrefix     = ConfigEffectConcurrencyPrefix + delimiter + "handler"
	ConfigEffectConcurrencyHandlerBufferSize = ConfigEffectConcurrencyHandlerPrefix + delimiter + "buffer_size"

	ConfigEffectSheetPrefix = ConfigEffectPrefix + delimiter + "sheet"

	ConfigEffectSheetHandlerPrefix         = ConfigEffectSheetPrefix + delimiter + "handler"
	ConfigEffectSheetHandlerBufferSize     = ConfigEffectSheetHandlerPrefix + delimiter + "buffer_size"
	ConfigEffectSheetHandlerFeedSize       = ConfigEffectSheetHandlerPrefix + delimiter + "feed_size"
	ConfigEffectSheetHandlerQueryCacheSize = ConfigEffectSheetHandlerPrefix + delimiter + "query_cache_size"
	ConfigEffectSheetHandlerIndexed        = ConfigEffectSheetHandlerPrefix + delimiter + "indexed"
)
