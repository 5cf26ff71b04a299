//go:generate mockgen -source=../logger.go             -destination=./mock_logger.go             -package=mocks
//go:generate mockgen -source=../message_consumer.go   -destination=./mock_message_consumer.go   -package=mocks
//go:generate mockgen -source=../event_sink.go         -destination=./mock_event_sink.go         -package=mocks
//go:generate mockgen -source=../topic_provisioner.go  -destination=./mock_topic_provisioner.go  -package=mocks
//go:generate mockgen -source=../health_reporter.go    -destination=./mock_health_reporter.go    -package=mocks

package mocks
