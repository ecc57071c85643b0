package opengl

// maxLights must match MAX_DIR_LIGHTS in fragSrc.
const maxLights = 4

// vertex shader: world-space position and normal to the fragment stage,
// plus the light-space position for the shadow lookup.
const vertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;

uniform mat4 mvp;
uniform mat4 model;
uniform mat4 view;
uniform mat4 lightSpace;

out vec3 fragNormal;
out vec2 fragUV;
out vec3 fragWorldPos;
out vec4 fragLightSpacePos;
out float fragViewDepth;

void main() {
    vec4 worldPos     = model * vec4(inPosition, 1.0);
    gl_Position       = mvp * vec4(inPosition, 1.0);
    fragNormal        = mat3(transpose(inverse(model))) * inNormal;
    fragUV            = inUV;
    fragWorldPos      = worldPos.xyz;
    fragLightSpacePos = lightSpace * worldPos;
    fragViewDepth     = -(view * worldPos).z;
}
` + "\x00"

// fragment shader: metallic-roughness Cook-Torrance with a hemisphere
// ambient term, up to four directional lights (the first may be shadowed),
// linear fog and ACES filmic tone mapping to sRGB.
const fragSrc = `
#version 410 core
in vec3 fragNormal;
in vec2 fragUV;
in vec3 fragWorldPos;
in vec4 fragLightSpacePos;
in float fragViewDepth;

out vec4 outColor;

#define MAX_DIR_LIGHTS 4
uniform int   lightCount;
uniform vec3  lightDir[MAX_DIR_LIGHTS];
uniform vec3  lightRadiance[MAX_DIR_LIGHTS];
uniform int   shadowLight; // index of the shadowed light, -1 for none

uniform vec3  hemiSky;
uniform vec3  hemiGround;
uniform float hemiIntensity;

uniform vec3 cameraPos;

uniform vec3  matBaseColor;
uniform float matOpacity;
uniform float matRoughness;
uniform float matMetalness;
uniform float matEnvIntensity;

uniform sampler2D baseColorTex;
uniform bool      hasTexture;

uniform sampler2DShadow shadowMap;
uniform bool            receiveShadow;
uniform float           shadowTexel;

uniform bool  fogEnabled;
uniform vec3  fogColor;
uniform float fogNear;
uniform float fogFar;

uniform float exposure;

const float PI = 3.14159265359;

vec3 toLinear(vec3 c) { return pow(c, vec3(2.2)); }

float calcShadow(vec3 N, vec3 L) {
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    p = p * 0.5 + 0.5;
    if (p.z > 1.0) return 1.0;
    float bias = max(0.002 * (1.0 - dot(N, L)), 0.0005);
    float shadow = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            shadow += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * shadowTexel, p.z - bias));
        }
    }
    return shadow / 9.0;
}

float DistributionGGX(float NdH, float roughness) {
    float a  = roughness * roughness;
    float a2 = a * a;
    float d  = NdH * NdH * (a2 - 1.0) + 1.0;
    return a2 / (PI * d * d);
}

float GeometrySchlickGGX(float cosTheta, float roughness) {
    float r = roughness + 1.0;
    float k = (r * r) / 8.0;
    return cosTheta / (cosTheta * (1.0 - k) + k);
}

vec3 FresnelSchlick(float cosTheta, vec3 F0) {
    return F0 + (1.0 - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 FresnelSchlickRoughness(float cosTheta, vec3 F0, float roughness) {
    return F0 + (max(vec3(1.0 - roughness), F0) - F0) * pow(clamp(1.0 - cosTheta, 0.0, 1.0), 5.0);
}

vec3 hemisphere(vec3 dir) {
    return mix(hemiGround, hemiSky, dir.y * 0.5 + 0.5) * hemiIntensity;
}

vec3 ACESFilm(vec3 x) {
    return clamp((x * (2.51 * x + 0.03)) / (x * (2.43 * x + 0.59) + 0.14), 0.0, 1.0);
}

void main() {
    vec3 N = normalize(fragNormal);
    vec3 V = normalize(cameraPos - fragWorldPos);
    if (!gl_FrontFacing) N = -N;

    vec3 albedo = toLinear(matBaseColor);
    float alpha = matOpacity;
    if (hasTexture) {
        vec4 t = texture(baseColorTex, fragUV);
        albedo *= toLinear(t.rgb);
        alpha  *= t.a;
    }
    float metallic  = clamp(matMetalness, 0.0, 1.0);
    float roughness = clamp(matRoughness, 0.04, 1.0);
    vec3  F0  = mix(vec3(0.04), albedo, metallic);
    float NdV = max(dot(N, V), 0.0);

    vec3 F_amb = FresnelSchlickRoughness(NdV, F0, roughness);
    vec3 kD    = (vec3(1.0) - F_amb) * (1.0 - metallic);
    vec3 color = hemisphere(N) * albedo * kD;
    color += hemisphere(reflect(-V, N)) * F_amb * (1.0 - roughness * roughness) * matEnvIntensity;

    for (int i = 0; i < lightCount && i < MAX_DIR_LIGHTS; i++) {
        vec3  L   = normalize(-lightDir[i]);
        float NdL = max(dot(N, L), 0.0);
        if (NdL <= 0.0) continue;
        vec3 H = normalize(V + L);
        float D = DistributionGGX(max(dot(N, H), 0.0), roughness);
        float G = GeometrySchlickGGX(NdV, roughness) * GeometrySchlickGGX(NdL, roughness);
        vec3  F = FresnelSchlick(max(dot(H, V), 0.0), F0);
        vec3 spec = D * G * F / max(4.0 * NdV * NdL, 0.001);
        vec3 kd = (vec3(1.0) - F) * (1.0 - metallic);
        float vis = (receiveShadow && i == shadowLight) ? calcShadow(N, L) : 1.0;
        color += (kd * albedo / PI + spec) * lightRadiance[i] * NdL * vis;
    }

    color = ACESFilm(color * exposure);
    color = pow(color, vec3(1.0 / 2.2));

    if (fogEnabled) {
        float f = smoothstep(fogNear, fogFar, fragViewDepth);
        color = mix(color, fogColor, f);
    }
    outColor = vec4(color, alpha);
}
` + "\x00"

// depth-only vertex shader for the shadow map pass
const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

// depth-only fragment shader (OpenGL writes depth implicitly)
const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"
