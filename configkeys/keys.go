package configkeys

const (
	delimiter = "."

	ConfigPrefix = "effkit"

	ConfigTapPrefix = ConfigPrefix + delimiter + "tap"

	ConfigTapHandlerPrefix     = ConfigTapPrefix + delimiter + "handler"
	ConfigTapHandlerBufferSize = ConfigTapHandlerPrefix + delimiter + "buffer_size"
	ConfigTapHandlerNumWorkers = ConfigTapHandlerPrefix + delimiter + "num_workers"
)
