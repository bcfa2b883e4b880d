package client

import "errors"

var (
	// ErrClientNotFound возвращается, когда клиент не найден
	ErrClientNotFound = errors.New("client.repository: client not found")

	// ErrDuplicateLicense возвращается при повторном номере водительского удостоверения
	ErrDuplicateLicense = errors.New("client.repository: license number already exists")

	// ErrDuplicateIdentity возвращается, если клиент с такими именем, фамилией и датой рождения уже есть
	ErrDuplicateIdentity = errors.New("client.repository: client with same name and birth date already exists")

	// ErrClientInUse возвращается при удалении клиента, на которого ссылаются контракты
	ErrClientInUse = errors.New("client.repository: client is referenced by contracts")

	ErrBuildQuery = errors.New("client.repository: failed to build query")
	ErrExecQuery  = errors.New("client.repository: failed to execute query")
	ErrScanRow    = errors.New("client.repository: failed to scan row")
)
