package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatSource --dir ../usecase --output usecase --outpkg usecasemock --filename stat_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name NotificationSink --dir ../usecase --output usecase --outpkg usecasemock --filename notification_sink_mock.go
