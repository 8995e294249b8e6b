package ports

import "github.com/bnema/objnode/internal/domain"

type Serializer interface {
	Serialize(obj *domain.Object) ([]byte, error)
	Deserialize(data []byte, classID domain.ClassID) (*domain.Object, error)
}

type ArgsCodec interface {
	EncodeArgs(args []any) ([]byte, error)
	DecodeArgs(data []byte) ([]any, error)
	EncodeResult(result any) ([]byte, error)
	DecodeResult(data []byte) (any, error)
}
