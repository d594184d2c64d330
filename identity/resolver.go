package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	chaterr "edu-chat/errors"
	"edu-chat/models"
)

// Resolver 将不透明凭证解析为参与者身份。
// 凭证的签发属于外部身份系统，本子系统只信任解析结果，不做二次校验。
type Resolver interface {
	Resolve(credential string) (models.Participant, error)
}

// Claims 身份系统签发的 JWT 载荷
type Claims struct {
	ParticipantID   string `json:"participant_id"`
	ParticipantKind string `json:"participant_kind"` // applicant / agent
	DisplayName     string `json:"display_name"`
	jwt.RegisteredClaims
}

// JWTResolver 默认实现：校验 HS256 签名并取出身份字段
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

func (r *JWTResolver) Resolve(credential string) (models.Participant, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return r.secret, nil
	})
	if err != nil {
		return models.Participant{}, fmt.Errorf("%w: %v", chaterr.ErrUnresolvedIdentity, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.Participant{}, chaterr.ErrUnresolvedIdentity
	}
	if claims.ParticipantID == "" {
		return models.Participant{}, fmt.Errorf("%w: empty participant id", chaterr.ErrUnresolvedIdentity)
	}
	if claims.ParticipantKind != models.KindApplicant && claims.ParticipantKind != models.KindAgent {
		return models.Participant{}, fmt.Errorf("%w: unknown participant kind %q", chaterr.ErrUnresolvedIdentity, claims.ParticipantKind)
	}

	return models.Participant{
		ID:          claims.ParticipantID,
		Kind:        claims.ParticipantKind,
		DisplayName: claims.DisplayName,
	}, nil
}

// StaticResolver 固定映射，测试和本地联调用
type StaticResolver struct {
	participants map[string]models.Participant
}

func NewStaticResolver(participants map[string]models.Participant) *StaticResolver {
	return &StaticResolver{participants: participants}
}

func (r *StaticResolver) Resolve(credential string) (models.Participant, error) {
	p, ok := r.participants[credential]
	if !ok {
		return models.Participant{}, chaterr.ErrUnresolvedIdentity
	}
	return p, nil
}
